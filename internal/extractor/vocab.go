package extractor

// Vocabulary for the Peruvian furniture catalog. Titles are uppercase
// Spanish with inconsistent accents, so every lookup set stores the
// accent-stripped form and callers compare stripped words against it.

// baseCategories are the recognized product categories. Multi-word
// entries come first so that direct matching, which sorts by length,
// never truncates "CAMA EUROPEA" into a bare "CAMA".
var baseCategories = []string{
	"CAMA EUROPEA",
	"CAMA CAJONES",
	"BOX TARIMA",
	"BOX SPRING",
	"BED BOXET",
	"BASE EUROPEA",
	"BASE BOX TARIMA",
	"BASE BOX EUROPEO",
	"BASE BOXET",
	"BASE CAJONES",
	"BASE DIVAN",
	"BASE AMERICANA",
	"COLCHON",
	"CONJUNTO",
	"DIVAN",
	"BOXET",
	"BERGERE",
	"RESPALDO",
	"VELADOR",
	"MESA",
	"POLTRONA",
	"BUTACA",
	"SOFA",
	"CABECERA",
	"ALMOHADA",
}

// typePrefixes qualify a base category into a product type, as in
// "DORMITORIO BOXET" or "KIT BASE CAJONES". Scan order matters: the
// first prefix found in a title wins.
var typePrefixes = []string{
	"DORMITORIO",
	"CAMA",
	"DOS COLCHONES",
	"KIT",
}

// categoryVariant maps a qualifier word that follows a type prefix to
// the base category it implies, e.g. "DORMITORIO EUROPEO" is a
// CAMA EUROPEA product.
type categoryVariant struct {
	variant      string
	baseCategory string
}

var categoryVariants = []categoryVariant{
	{"EUROPEO", "CAMA EUROPEA"},
	{"EUROPEA", "CAMA EUROPEA"},
	{"AMERICANA", "BOX TARIMA"},
	{"AMERICANO", "BOX TARIMA"},
	{"DIVAN", "DIVAN"},
	{"CON CAJONES", "CAMA CAJONES"},
	{"CON CAJON", "CAMA CAJONES"},
}

// brandNames are the known mattress and furniture brands, accent
// stripped. Order is only a tiebreak: the matcher sorts by length so
// "EL CISNE" is tried before "CISNE".
var brandNames = []string{
	"ROSEN",
	"PARAISO",
	"DRIMER",
	"SIMMONS",
	"SERTA",
	"DROM",
	"MICA",
	"FORLI",
	"RIZZOLI",
	"EL CISNE",
	"CISNE",
	"RIPLEY HOME",
	"MAISON LINETT",
}

// stopWords are structural words that are never part of a model name
// or a color. The list keeps the accented spellings that appear in
// titles; lookup sets are built from the stripped forms.
var stopWords = []string{
	"CON", "DE", "Y", "EN", "LA", "EL", "LOS", "LAS", "UN", "UNA",
	"PARA", "POR", "SIN", "SOBRE", "BAJO", "ENTRE", "DESDE", "HASTA",
	"DORMITORIO", "CAMA", "COLCHON", "BASE", "BOX",
	"EUROPEO", "EUROPEA", "AMERICANO", "AMERICANA",
	"TARIMA", "SPRING", "DIVAN", "BOXET",
	"CAJONES", "CAJON", "CAJÓN",
	"BED", "KIT", "CONJUNTO",
	"PLAZAS", "PLAZA", "PLZ", "QUEEN", "KING", "CUERPO", "CUERPOS",
	"ALMOHADA", "ALMOHADAS", "PROTECTOR", "CABECERA",
	"VELADOR", "VELADORES", "COMODA", "SOFA",
	"VISCOELASTICA", "VISCOELASTICAS",
	"SMART", "TV", "HD", "TELEVISOR",
}

// colorNames are colors and brand fabric names that should never be
// mistaken for a model word.
var colorNames = []string{
	"GRIS", "AZUL", "ROJO", "VERDE", "NEGRO", "BLANCO", "MARRON",
	"BEIGE", "CHOCOLATE", "CHAMPAGNE", "GRAFITO", "NIEBLA", "PLATA",
	"DORADO", "CREMA", "CAFE", "PLOMO", "HUMO", "ARENA", "TERRACOTA",
	"HANOVER", "ISSEY",
}

var (
	stopWordSet  = stripSet(stopWords)
	brandWordSet = stripSet(brandNames)
	colorNameSet = stripSet(colorNames)
)

// stripSet builds an accent-stripped lookup set from a word list.
func stripSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[stripAccents(w)] = struct{}{}
	}
	return set
}
