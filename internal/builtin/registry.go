// Package builtin provides the registry of fake service types.
package builtin

import (
	"github.com/islo-labs/icn-push/pkg/fake"
	"github.com/islo-labs/icn-push/plugins/icn"
)

// Registry maps service type names to their constructor functions.
var Registry = map[string]func() fake.Service{
	"icn": icn.New,
}
