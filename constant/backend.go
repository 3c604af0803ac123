package constant

const (
	BackendTypePlain = "plain"
	BackendTypeTLS   = "tls"
)

// BackendSchemeTLS selects an encrypted backend when prefixed to the backend address.
const BackendSchemeTLS = "tls:"

const TypeTLS = "tls"
