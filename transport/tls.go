package transport

import (
	"crypto/tls"
	"net/http"
)

// insecureTransport builds a transport that accepts self-signed
// certificates, grounded on the teacher's newHTTPClient TLS setup. Used
// only when a RequestDescriptor opts in with TLSInsecure — the
// on-premise "ignoreSslCerts=true" bootstrap flag from spec §4.3/§4.5.
func insecureTransport() *http.Transport {
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS12,
		},
	}
}
