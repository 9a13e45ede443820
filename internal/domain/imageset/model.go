package imageset

// Required filename suffixes, in match priority order.
const (
	SuffixSRIntFull = "sr_int_full.png"
	SuffixTRLine    = "-tr_line.png"
	SuffixTRIntFull = "-tr_int_full.png"
)

// RequiredSuffixes lists the suffixes a complete triplet must have, in the
// order they are tested against a filename.
var RequiredSuffixes = []string{SuffixSRIntFull, SuffixTRLine, SuffixTRIntFull}

// Triplet is one complete image set sharing a file-id prefix within a folder.
type Triplet struct {
	FileID    string `json:"file_id"`
	SRIntFull string `json:"sr_int_full"`
	TRLine    string `json:"tr_line"`
	TRIntFull string `json:"tr_int_full"`
}

// Paths returns the three image paths in display order.
func (t Triplet) Paths() []string {
	return []string{t.SRIntFull, t.TRLine, t.TRIntFull}
}

// FolderSet groups the complete triplets found in one folder.
type FolderSet struct {
	Folder    string    `json:"folder"`
	ImageSets []Triplet `json:"image_sets"`
}

// Images returns every image path referenced by the folder.
func (f FolderSet) Images() map[string]struct{} {
	images := make(map[string]struct{}, len(f.ImageSets)*3)
	for _, set := range f.ImageSets {
		for _, p := range set.Paths() {
			images[p] = struct{}{}
		}
	}
	return images
}
