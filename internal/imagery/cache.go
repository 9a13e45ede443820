package imagery

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize holds a few folders' worth of triplets.
const DefaultCacheSize = 64

// ImageCache is a thread-safe, size-bounded cache of decoded images keyed by
// file path. The least recently used image is dropped when it is full.
type ImageCache struct {
	images *lru.Cache[string, image.Image]
}

// NewImageCache creates a cache holding at most size images. A size of zero
// or less uses DefaultCacheSize.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New[string, image.Image](size)
	if err != nil {
		// Only returned for a non-positive size, ruled out above.
		panic(err)
	}
	return &ImageCache{images: images}
}

// Load returns the decoded image at path, reading it from disk on a miss.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.images.Get(path); ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.images.Add(path, img)
	return img, nil
}

// Evict drops one path from the cache.
func (c *ImageCache) Evict(path string) {
	c.images.Remove(path)
}

// Clear empties the cache.
func (c *ImageCache) Clear() {
	c.images.Purge()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.images.Len()
}
