package session

import (
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/imageset"
)

// View is the state an operator sees after an action: the active triplet,
// where it sits in the folder list, and the labels drawn so far.
type View struct {
	Directory string             `json:"directory,omitempty"`
	Folder    string             `json:"folder"`
	Triplet   imageset.Triplet   `json:"triplet"`
	Labels    []annotation.Label `json:"labels"`
	Classes   []annotation.Class `json:"classes"`

	// Head and SetIndex are 1-based for display.
	Head        int `json:"head"`
	FolderCount int `json:"folder_count"`
	SetIndex    int `json:"set_index"`
	SetCount    int `json:"set_count"`

	HasPrevFolder bool `json:"has_prev_folder"`
	HasNextFolder bool `json:"has_next_folder"`
	HasPrevSet    bool `json:"has_prev_set"`
	HasNextSet    bool `json:"has_next_set"`
}

// Images returns the active triplet's paths in display order.
func (v View) Images() []string {
	if v.Folder == "" {
		return nil
	}
	return v.Triplet.Paths()
}

// LabelsFor returns the labels drawn on one image.
func (v View) LabelsFor(image string) []annotation.Label {
	var out []annotation.Label
	for _, l := range v.Labels {
		if l.Image == image {
			out = append(out, l)
		}
	}
	return out
}

// Options configures a session.
type Options struct {
	Folders []imageset.FolderSet
	// Directory is the local image root, empty when images come from a dataset.
	Directory string
	// DatasetError describes why Folders is empty, shown to the operator.
	DatasetError string
}
