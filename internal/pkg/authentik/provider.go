package authentik

import (
	"github.com/google/wire"
)

// ProviderSet is a Wire provider set for the authentik client
var ProviderSet = wire.NewSet(ProvideClient)

// Conf is the subset of [invite] the client needs.
type Conf struct {
	URL        string
	AdminToken string
}

// ProvideClient builds and validates the client.
func ProvideClient(conf Conf) (*Client, error) {
	client := NewClient(conf.URL, conf.AdminToken)
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return client, nil
}
