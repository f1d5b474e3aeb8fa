package roomname

var adjectives = []string{
	"quiet", "brave", "calm", "eager", "gentle", "humble", "jolly", "keen", "lucky", "mellow",
	"nimble", "proud", "rapid", "silent", "sturdy", "swift", "tidy", "vivid", "witty", "zesty",
	"bold", "bright", "clever", "daring", "fancy", "fuzzy", "giddy", "hidden", "icy", "lively",
}

var colors = []string{
	"amber", "azure", "coral", "crimson", "ebony", "emerald", "golden", "indigo", "ivory", "jade",
	"lilac", "magenta", "navy", "ochre", "olive", "pearl", "ruby", "saffron", "scarlet", "silver",
	"teal", "topaz", "umber", "violet", "cobalt", "copper", "cyan", "plum", "sand", "slate",
}

var animals = []string{
	"otter", "badger", "falcon", "heron", "ibex", "jackal", "koala", "lemur", "lynx", "marten",
	"newt", "ocelot", "owl", "panda", "puffin", "quail", "raven", "salmon", "tapir", "toucan",
	"viper", "walrus", "wombat", "yak", "zebra", "bison", "crane", "dingo", "egret", "ferret",
}

var places = []string{
	"harbor", "canyon", "meadow", "summit", "lagoon", "forest", "delta", "glacier", "island", "valley",
	"prairie", "reef", "ridge", "tundra", "oasis", "grove", "marsh", "cove", "dune", "fjord",
	"bay", "cliff", "creek", "mesa", "plateau", "cavern", "atoll", "bluff", "gorge", "heath",
}
