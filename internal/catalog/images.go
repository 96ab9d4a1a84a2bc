package catalog

import "strings"

const (
	imageVideoCard = "https://images.unsplash.com/photo-1518770660439-4636190af475?auto=format&fit=crop&w=900&q=80"
	imageProcessor = "https://images.unsplash.com/photo-1517059224940-d4af9eec41b7?auto=format&fit=crop&w=900&q=80"
	imageHeadset   = "https://images.unsplash.com/photo-1511367461989-f85a21fda167?auto=format&fit=crop&w=900&q=80"
	imageMouse     = "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?auto=format&fit=crop&w=900&q=80"
	imageKeyboard  = "https://images.unsplash.com/photo-1517433670267-08bbd4be890f?auto=format&fit=crop&w=900&q=80"
)

// DefaultImage is used for labels no rule recognizes.
const DefaultImage = imageVideoCard

var imageRules = []struct {
	fragments []string
	image     string
}{
	{[]string{"placa"}, imageVideoCard},
	{[]string{"proces"}, imageProcessor},
	{[]string{"auricular", "head"}, imageHeadset},
	{[]string{"mouse"}, imageMouse},
	{[]string{"tecl"}, imageKeyboard},
}

// ResolveDisplayImage maps a category label to a display image. Matching is
// case-insensitive on substrings and the first matching rule wins.
func ResolveDisplayImage(categoryLabel string) string {
	normalized := strings.ToLower(strings.TrimSpace(categoryLabel))

	for _, rule := range imageRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(normalized, fragment) {
				return rule.image
			}
		}
	}
	return DefaultImage
}
