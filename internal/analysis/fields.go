package analysis

// Dissector field names the stages look for.
const (
	FieldSSIDTag       = "wlan_mgt.tag.interpretation"
	FieldTagNumber     = "wlan_mgt.tag.number"
	FieldHTTPHost      = "http.host"
	FieldDNSRespName   = "dns.resp.name"
	FieldHTTPProtocol  = "http"
	tagNumberSSIDParam = 0x00
)
