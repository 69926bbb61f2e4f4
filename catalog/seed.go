package catalog

// AppleSmartphoneSeed returns the factory model table for Apple smartphones:
// 12 series covering 41 models, from the current lineup down to the legacy
// devices that still show up at the counter. Callers pass it to Reseed.
func AppleSmartphoneSeed() map[string][]string {
	return map[string][]string{
		"iPhone 15": {"iPhone 15", "iPhone 15 Plus", "iPhone 15 Pro", "iPhone 15 Pro Max"},
		"iPhone 14": {"iPhone 14", "iPhone 14 Plus", "iPhone 14 Pro", "iPhone 14 Pro Max"},
		"iPhone 13": {"iPhone 13", "iPhone 13 mini", "iPhone 13 Pro", "iPhone 13 Pro Max"},
		"iPhone 12": {"iPhone 12", "iPhone 12 mini", "iPhone 12 Pro", "iPhone 12 Pro Max"},
		"iPhone 11": {"iPhone 11", "iPhone 11 Pro", "iPhone 11 Pro Max"},
		"iPhone X":  {"iPhone X", "iPhone XR", "iPhone XS", "iPhone XS Max"},
		"iPhone 8":  {"iPhone 8", "iPhone 8 Plus"},
		"iPhone 7":  {"iPhone 7", "iPhone 7 Plus"},
		"iPhone 6":  {"iPhone 6", "iPhone 6 Plus", "iPhone 6s", "iPhone 6s Plus"},
		"iPhone SE": {"iPhone SE (2016)", "iPhone SE (2020)", "iPhone SE (2022)"},
		"iPhone 5":  {"iPhone 5", "iPhone 5c", "iPhone 5s"},
		"Ältere Modelle": {
			"iPhone 4", "iPhone 4s", "iPhone 3GS", "iPhone (2007)",
		},
	}
}
