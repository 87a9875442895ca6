package shopping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	crawlTimeout = 10 * time.Second
	dialTimeout  = 5 * time.Second
	maxRedirects = 5
	maxPageBytes = 2 << 20
	userAgent    = "Mozilla/5.0 (compatible; MoamoaBot/1.0)"
)

// ErrBlockedAddress is returned when a page, or a redirect it issues,
// resolves to an address that is not publicly routable.
var ErrBlockedAddress = errors.New("address is not publicly routable")

// sharedAddressSpace is the carrier-grade NAT range (RFC 6598).
var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// Crawler reads product details from a shop page.
type Crawler struct {
	http *http.Client
}

// NewCrawler returns a crawler that only connects to public addresses.
func NewCrawler() *Crawler {
	return newCrawler(PublicAddress)
}

// newCrawler checks every outgoing connection with allow. The check runs in
// the dialer after DNS resolution, so redirects and rebinding hosts are
// covered as well.
func newCrawler(allow func(address string) error) *Crawler {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			return allow(address)
		},
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: crawlTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Crawler{http: &http.Client{
		Timeout:   crawlTimeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
			}
			return nil
		},
	}}
}

// PublicAddress rejects a dialed "ip:port" that is loopback, private,
// link-local, multicast, unspecified or in the shared address space.
func PublicAddress(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() ||
		sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// Fetch downloads rawURL and extracts the product from its meta tags.
func (c *Crawler) Fetch(ctx context.Context, rawURL string) (Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Product{}, fmt.Errorf("failed to build crawl request: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return Product{}, fmt.Errorf("unsupported scheme %q", req.URL.Scheme)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Product{}, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	p, err := ParsePage(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Product{}, err
	}
	p.URL = rawURL
	return p, nil
}

// ParsePage reads og:title, og:image and product:price:amount, falling back
// to the <title> element for the name.
func ParsePage(r io.Reader) (Product, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Product{}, fmt.Errorf("failed to parse product page: %w", err)
	}

	var p Product
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				key, content := metaPair(n)
				switch key {
				case "og:title":
					if p.ProductName == "" {
						p.ProductName = strings.TrimSpace(content)
					}
				case "og:image":
					if p.ImageURL == "" {
						p.ImageURL = strings.TrimSpace(content)
					}
				case "product:price:amount", "og:price:amount":
					if p.Price == 0 {
						p.Price = parsePrice(strings.SplitN(content, ".", 2)[0])
					}
				}
			case atom.Title:
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if p.ProductName == "" {
		p.ProductName = title
	}
	return p, nil
}

func metaPair(n *html.Node) (key, content string) {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(a.Val)
			}
		case "content":
			content = a.Val
		}
	}
	return key, content
}

// CleanText strips markup such as the <b> highlight tags the search API puts
// around matched words and decodes entities.
func CleanText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
