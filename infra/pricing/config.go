package pricing

// Config holds the endpoints and timeouts of the market data sources.
type Config struct {
	// RENEndpoint is the REN market-info SOAP service URL.
	RENEndpoint string `json:"ren_endpoint"`
	// OMIEBaseURL is the OMIE file-download base URL.
	OMIEBaseURL string `json:"omie_base_url"`
	// TimeoutSeconds bounds each upstream HTTP call.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies the production endpoints.
func (c *Config) SetDefaults() {
	if c.RENEndpoint == "" {
		c.RENEndpoint = "https://ws-mercado.ren.pt/MarketInfoService.asmx"
	}
	if c.OMIEBaseURL == "" {
		c.OMIEBaseURL = "https://www.omie.es/pt/file-download"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 20
	}
}
