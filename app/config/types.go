package config

// Target describes one dashboard to refresh.
type Target struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	AuthCode   string `yaml:"auth_code"`
	CookieFile string `yaml:"cookie_file"`
}

// File is the on-disk shape of a targets file.
type File struct {
	Targets []Target `yaml:"targets"`
}
