package http_utils

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/quic-go/quic-go/http3"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"
)

// HTTP protocol versions a client can be pinned to
const (
	HTTPVersion1 = "1.1"
	HTTPVersion2 = "2"
	HTTPVersion3 = "3"
)

func getProxyFunc(proxy string) func(*http.Request) (*url.URL, error) {
	if proxy == "" {
		return http.ProxyFromEnvironment
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		log.Error().Err(err).Str("proxy", proxy).Msg("Error parsing proxy url, using environment proxy")
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(proxyURL)
}

// CreateHttpTransport creates an HTTP transport with no pre-defined http version.
func CreateHttpTransport(proxy string) *http.Transport {
	transport := &http.Transport{
		Proxy: getProxyFunc(proxy),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       100,
		DisableKeepAlives:     false,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			Renegotiation:      tls.RenegotiateOnceAsClient,
			InsecureSkipVerify: true,
		},
	}
	return transport
}

// CreateHttp2Transport creates an HTTP/2 transport.
func CreateHttp2Transport() *http2.Transport {
	return &http2.Transport{
		// Ensure the connection uses only HTTP/2 without falling back.
		AllowHTTP: false,
		DialTLS: func(network, addr string, cfg *tls.Config) (net.Conn, error) {
			if cfg == nil {
				cfg = &tls.Config{}
			}
			cfg.NextProtos = []string{"h2"}
			return tls.DialWithDialer(&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}, network, addr, cfg)
		},
		TLSClientConfig: &tls.Config{
			Renegotiation:      tls.RenegotiateOnceAsClient,
			InsecureSkipVerify: true,
		},
	}
}

// CreateHttp3Transport creates an HTTP/3 transport.
func CreateHttp3Transport() *http3.RoundTripper {
	return &http3.RoundTripper{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
		DisableCompression: false,
	}
}

// CreateHttpClient creates a regular HTTP client that does not follow redirects,
// so the upload and fetch responses are observed exactly as the target sent them.
func CreateHttpClient(proxy string) *http.Client {
	return &http.Client{
		Transport:     CreateHttpTransport(proxy),
		CheckRedirect: noRedirects,
	}
}

// ClientOptions configures CreateClient
type ClientOptions struct {
	Proxy           string
	HTTPVersion     string
	FollowRedirects bool
	UseCookieJar    bool
}

// CreateClient creates a client for the requested protocol version. Proxies are
// only honoured over HTTP/1.1.
func CreateClient(options ClientOptions) *http.Client {
	client := &http.Client{}
	switch options.HTTPVersion {
	case HTTPVersion2:
		client.Transport = CreateHttp2Transport()
	case HTTPVersion3:
		client.Transport = CreateHttp3Transport()
	default:
		client.Transport = CreateHttpTransport(options.Proxy)
	}
	if !options.FollowRedirects {
		client.CheckRedirect = noRedirects
	}
	if options.UseCookieJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			log.Error().Err(err).Msg("Error creating cookie jar, continuing without it")
		} else {
			client.Jar = jar
		}
	}
	return client
}

func noRedirects(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}
