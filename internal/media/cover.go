package media

import "strings"

// CoverVariant rewrites a catalog artwork URL to the original-quality
// variant when requested. Catalog image URLs encode the size as a
// `_600` suffix before the extension; `_org` is the untouched upload.
func CoverVariant(coverURL string, original bool) string {
	if !original {
		return coverURL
	}
	for _, size := range []string{"_600.", "_230.", "_50."} {
		if strings.Contains(coverURL, size) {
			return strings.Replace(coverURL, size, "_org.", 1)
		}
	}
	return coverURL
}
