package standardize

// Entry pairs a canonical ingredient name with the synonym strings that
// collapse to it.
type Entry struct {
	Canonical string
	Synonyms  []string
}

// curatedTable is the master synonym table. It is an ordered list evaluated
// first-match-wins; iteration order is part of the observable contract, so
// overlapping synonyms ("corn" inside "creamed corn") resolve to whichever
// entry appears first. Match rule: a synonym matches when it is a substring
// of the cleaned text or the cleaned text is a substring of the synonym.
var curatedTable = []Entry{
	// Flour & grains
	{"FLOUR", []string{"flour", "all-purpose flour", "all purpose flour"}},
	{"RICE", []string{"rice", "white rice", "long grain rice"}},
	{"CORNMEAL", []string{"cornmeal", "corn meal"}},

	// Sugars
	{"SUGAR", []string{"sugar", "white sugar", "granulated sugar"}},
	{"BROWN_SUGAR", []string{"brown sugar", "packed brown sugar"}},

	// Fats
	{"BUTTER", []string{"butter", "butter, softened", "butter or margarine", "margarine"}},
	{"LARD", []string{"lard", "shortening", "bacon fat", "bacon grease"}},
	{"OIL", []string{"oil", "vegetable oil", "cooking oil"}},

	// Dairy
	{"MILK", []string{"milk", "whole milk"}},
	{"EGGS", []string{"eggs", "egg", "eggs, beaten", "beaten eggs"}},
	{"HARD_BOILED_EGGS", []string{"hard-boiled eggs", "hard boiled eggs"}},

	// Proteins
	{"GROUND_BEEF", []string{"ground beef", "hamburger", "ground meat"}},
	{"BEEF", []string{"beef", "beef stew meat", "stew meat"}},
	{"DRIED_BEEF", []string{"dried beef", "chipped beef"}},
	{"TUNA", []string{"tuna", "canned tuna", "tuna fish"}},
	{"HOT_DOGS", []string{"hot dogs", "sausage", "frankfurters"}},

	// Vegetables
	{"POTATOES", []string{"potatoes", "potato"}},
	{"ONION", []string{"onion", "onions", "yellow onion"}},
	{"CARROTS", []string{"carrots", "carrot"}},
	{"CELERY", []string{"celery", "celery ribs"}},
	{"GARLIC", []string{"garlic", "garlic cloves"}},

	// Canned goods
	{"CANNED_TOMATOES", []string{"canned tomatoes", "tomatoes", "stewed tomatoes", "tomatoes, chopped or stewed"}},
	{"CANNED_CORN", []string{"corn", "canned corn", "whole kernel corn"}},
	{"CREAMED_CORN", []string{"creamed corn", "cream corn"}},
	{"CANNED_BEANS", []string{"beans", "mixed beans", "canned beans"}},
	{"CHICKEN_SOUP", []string{"chicken noodle soup", "condensed soup"}},

	// Pasta & noodles
	{"EGG_NOODLES", []string{"egg noodles", "wide egg noodles", "noodles"}},
	{"MACARONI", []string{"macaroni", "elbow macaroni", "pasta"}},

	// Beans (dried)
	{"DRIED_BEANS", []string{"dried beans", "dry beans", "navy beans", "pinto beans", "beans (navy or pinto)"}},

	// Seasonings & spices
	{"SALT", []string{"salt", "table salt"}},
	{"PEPPER", []string{"pepper", "black pepper", "ground pepper"}},
	{"CINNAMON", []string{"cinnamon", "ground cinnamon"}},
	{"PAPRIKA", []string{"paprika"}},
	{"CARAWAY_SEEDS", []string{"caraway seeds", "caraway"}},

	// Baking
	{"BAKING_SODA", []string{"baking soda", "soda"}},
	{"BAKING_POWDER", []string{"baking powder"}},
	{"VANILLA", []string{"vanilla", "vanilla extract", "vanilla flavoring"}},

	// Fruits
	{"BANANAS", []string{"bananas", "overripe bananas", "mashed bananas"}},
	{"RAISINS", []string{"raisins"}},

	// Liquids
	{"WATER", []string{"water", "hot water", "boiling water", "warm water"}},
	{"STOCK", []string{"stock", "meat stock", "beef stock", "chicken stock", "broth"}},

	// Sweeteners
	{"HONEY", []string{"honey"}},
	{"MOLASSES", []string{"molasses"}},
	{"SYRUP", []string{"syrup", "maple syrup", "corn syrup"}},

	// Bread
	{"BREAD", []string{"bread", "stale bread", "toast", "day-old bread"}},
}

// qualifiers are preparation and size words stripped from ingredient text
// before matching. Longer words precede the words they contain so stripping
// "cooked" cannot mangle "uncooked".
var qualifiers = []string{
	"fresh", "frozen", "canned", "dried", "optional",
	"if available", "or similar", "chopped", "sliced",
	"diced", "minced", "peeled", "uncooked", "cooked",
	"melted", "softened", "beaten", "mashed", "torn",
	"thin", "thick", "large", "medium", "small",
}
