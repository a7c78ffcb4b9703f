package transport

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// Entry is one <connection> element of a connections file.
type Entry struct {
	ID           string `xml:"id,attr"`
	URI          string `xml:"uri,attr"`
	AddressTable string `xml:"address_table,attr"`
}

// Protocol returns the URI scheme ("ipbusflx-2.0" for "ipbusflx-2.0://...").
func (e Entry) Protocol() string {
	if i := strings.Index(e.URI, "://"); i > 0 {
		return e.URI[:i]
	}
	return ""
}

// Catalogue is a parsed connections file.
type Catalogue struct {
	Path    string
	Entries []Entry
}

type connectionsXML struct {
	XMLName     xml.Name `xml:"connections"`
	Connections []Entry  `xml:"connection"`
}

// CataloguePath strips a file:// prefix. Other schemes are not supported.
func CataloguePath(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "file://"):
		return strings.TrimPrefix(uri, "file://"), nil
	case strings.Contains(uri, "://"):
		return "", fmt.Errorf("%w: unsupported catalogue scheme in %q", ErrCatalogueNotFound, uri)
	default:
		return uri, nil
	}
}

// LoadCatalogue reads and parses the connections file at uri.
// Read and parse failures both wrap ErrCatalogueNotFound.
func LoadCatalogue(uri string) (*Catalogue, error) {
	path, err := CataloguePath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogueNotFound, err)
	}
	return ParseCatalogue(path, data)
}

// ParseCatalogue parses connections XML.
func ParseCatalogue(path string, data []byte) (*Catalogue, error) {
	var doc connectionsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogueNotFound, path, err)
	}
	return &Catalogue{Path: path, Entries: doc.Connections}, nil
}

// Filter returns the entries whose protocol is one of protocols.
// With no protocols every entry is returned.
func (c *Catalogue) Filter(protocols ...string) []Entry {
	if len(protocols) == 0 {
		return append([]Entry(nil), c.Entries...)
	}
	var out []Entry
	for _, e := range c.Entries {
		for _, p := range protocols {
			if e.Protocol() == p {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Lookup finds a visible entry by id.
func (c *Catalogue) Lookup(id string, protocols ...string) (Entry, error) {
	for _, e := range c.Filter(protocols...) {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q in %s", ErrDeviceNotFound, id, c.Path)
}
