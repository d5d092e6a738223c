package registry

import (
	"fmt"

	"github.com/whereip/whereip/cdn"
	"github.com/whereip/whereip/config"
	"github.com/whereip/whereip/demo"
	"github.com/whereip/whereip/geo"
	"github.com/whereip/whereip/ipip"
	"github.com/whereip/whereip/mmdb"
	"github.com/whereip/whereip/qqwry"
	"github.com/whereip/whereip/zxipv6"
)

// newHandle creates an unloaded database handle for the catalog entry.
func newHandle(info config.DatabaseInfo) (geo.Database, error) {
	kind, ok := config.KindOfFormat(info.Format)
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q for %s", geo.ErrNotFound, info.Format, info.Name)
	}

	switch kind {
	case geo.KindQQWry:
		return qqwry.New(), nil
	case geo.KindZXIPv6:
		return zxipv6.New(), nil
	case geo.KindIPIP:
		return ipip.New(), nil
	case geo.KindMMDB:
		return mmdb.New(), nil
	case geo.KindCDN:
		return cdn.New(), nil
	case geo.KindDBIP:
		return demo.DBIP(), nil
	case geo.KindIP2Region:
		return demo.IP2Region(), nil
	case geo.KindIP2Location:
		return demo.IP2Location(), nil
	default:
		return nil, fmt.Errorf("%w: format %q has no handler", geo.ErrNotFound, info.Format)
	}
}
