package config

// DefaultStore returns the built-in configuration.
func DefaultStore() Store {
	return Store{
		Lookup:    defaultLookup(),
		Databases: defaultDatabases(),
	}
}

func defaultLookup() Lookup {
	return Lookup{
		IPv4: "qqwry",
		IPv6: "zxipv6wry",
		CDN:  "cdn",
	}
}

func defaultDatabases() []DatabaseInfo {
	return []DatabaseInfo{
		{
			Name:    "qqwry",
			Aliases: []string{"chunzhen"},
			Format:  "qqwry",
			File:    "qqwry.dat",
			Sources: []string{
				"https://github.com/metowolf/qqwry.dat/releases/latest/download/qqwry.dat",
			},
		},
		{
			Name:    "zxipv6wry",
			Aliases: []string{"zxipv6"},
			Format:  "zxipv6",
			File:    "zxipv6wry.db",
			Sources: []string{
				"https://ip.zxinc.org/ip.7z",
			},
		},
		{
			Name:   "cdn",
			Format: "cdn",
			File:   "cdn.yml",
			Sources: []string{
				"https://cdn.jsdelivr.net/gh/4ft35t/cdn/src/cdn.yml",
				"https://raw.githubusercontent.com/4ft35t/cdn/master/src/cdn.yml",
				"https://raw.githubusercontent.com/SukkaLab/cdn/master/src/cdn.yml",
			},
		},
		{
			Name:    "geoip2",
			Aliases: []string{"geoip", "geolite"},
			Format:  "mmdb",
			File:    "GeoLite2-City.mmdb",
		},
		{
			Name:   "ipip",
			Format: "ipip",
			File:   "ipipfree.ipdb",
		},
		{
			Name:   "dbip",
			Format: "dbip",
			File:   "dbip.csv",
		},
		{
			Name:   "ip2region",
			Format: "ip2region",
			File:   "ip2region.xdb",
		},
		{
			Name:   "ip2location",
			Format: "ip2location",
			File:   "ip2location.bin",
		},
	}
}
