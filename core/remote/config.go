package remote

// Config holds connection settings for the remote table API that are not credentials.
type Config struct {
	// BaseURL is the API root, e.g. https://open.feishu.cn/open-apis.
	BaseURL string `mapstructure:"base_url" default:"https://open.feishu.cn/open-apis"`
	// Timezone is the IANA zone used to map epoch-millisecond dates to calendar days.
	Timezone string `mapstructure:"timezone" default:"Local"`
	// TimeoutSeconds bounds every HTTP round trip.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PageSize is the page size used when listing records.
	PageSize int `mapstructure:"page_size" default:"500"`
}

// Credentials identify the app and the table to operate on.
type Credentials struct {
	// AppID is the long-lived app identifier.
	AppID string
	// AppSecret is the long-lived app secret.
	AppSecret string
	// AppToken identifies the bitable app (the "base").
	AppToken string
	// TableID identifies the table inside the base.
	TableID string
}

// Complete reports whether every identifier needed for a network call is present.
func (c Credentials) Complete() bool {
	return c.AppID != "" && c.AppSecret != "" && c.AppToken != "" && c.TableID != ""
}

// Missing returns the names of the empty identifiers.
func (c Credentials) Missing() []string {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, "app_id")
	}
	if c.AppSecret == "" {
		missing = append(missing, "app_secret")
	}
	if c.AppToken == "" {
		missing = append(missing, "app_token")
	}
	if c.TableID == "" {
		missing = append(missing, "table_id")
	}
	return missing
}
