package seed

// Entry is one sport in the seed file
type Entry struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

// Config is the root structure of the seed file:
//
//	sports:
//	  - name: Football
//	    color: "#FF7043"
//	    icon: football
type Config struct {
	Sports []Entry `yaml:"sports"`
}
