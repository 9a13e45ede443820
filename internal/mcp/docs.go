package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `triplet-annotator draws bounding boxes on image triplets and writes them to a CSV file.

Core concepts:
- Folder set: one folder of the dataset, holding one or more image sets.
- Image set (triplet): three images sharing a file id: sr_int_full, tr_line and tr_int_full.
- Box: an axis-aligned rectangle in image pixels. New boxes are unclassified and addressed by a temp id.
- Class: a lowercased name with a numeric id allocated on first use. Labeling a box replaces its temp id with the class id.

Default workflow:
1) Orient: call get_state for the current folder, image paths and labels.
2) Draw: add_box(image, x_min, x_max, y_min, y_max). Keep the returned temp_id.
3) Classify: label_box(image, id=temp_id, name).
4) Move on: next_set saves every classified box; save_and_next merges the folder into the file and releases its labels.

Docs:
- annotator://docs/index
- annotator://docs/csv-format
- annotator://docs/workflows/annotate-folder
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "annotator://docs/index",
		Name:        "docs_index",
		Title:       "triplet-annotator docs index",
		Description: "Entry point for agent-facing docs: tools, what to read, and known limitations.",
		Content: `# triplet-annotator: Agent Docs Index

## Quick start

1. ` + "`get_state`" + ` shows the active folder, image set and labels.
2. ` + "`add_box`" + ` draws an unclassified box and returns its ` + "`temp_id`" + `.
3. ` + "`label_box`" + ` classifies it. Class ids are stable for the life of the process.
4. ` + "`next_set`" + ` / ` + "`next_folder`" + ` save and move on; ` + "`save_and_next`" + ` finishes a folder.

## Docs

- ` + "`annotator://docs/csv-format`" + `: the output file layout.
- ` + "`annotator://docs/workflows/annotate-folder`" + `: the loop for one folder.

## Limitations

- There is one shared session. Operators using the web page see the same cursor and labels.
- Unclassified boxes are never written to the file.
- ` + "`prev_set`" + ` and ` + "`prev_folder`" + ` do not save.
`,
	},
	{
		URI:         "annotator://docs/csv-format",
		Name:        "docs_csv_format",
		Title:       "Annotation file format",
		Description: "Columns, coordinate convention and merge behaviour of the output CSV.",
		Content: `# Annotation file format

Header: ` + "`image,id,name,centerX,centerY,width,height`" + `

- image: the dataset or directory relative path of the image.
- id: the class id; name: the lowercased class name.
- centerX, centerY, width, height: the box in image pixels, center/size form.

Saving on navigation rewrites the file with every classified label in memory.
` + "`save_and_next`" + ` keeps rows for other folders, replaces rows for the current folder and
drops the folder's labels from memory.

A file whose header does not match is moved aside to a ` + "`_backup.csv`" + ` copy and replaced.
`,
	},
	{
		URI:         "annotator://docs/workflows/annotate-folder",
		Name:        "docs_workflow_annotate_folder",
		Title:       "Workflow: annotate a folder",
		Description: "Playbook for drawing, classifying and saving one folder.",
		Content: `# Workflow: annotate a folder

1) ` + "`get_state`" + `. If ` + "`available`" + ` is false, report ` + "`dataset_error`" + ` and stop.
2) For each image in ` + "`images`" + `, add boxes and label them.
   - Reuse existing class names so ids stay consistent (` + "`list_classes`" + `).
   - Remove a mistake with ` + "`remove_box(image, id)`" + `.
3) ` + "`next_set`" + ` until ` + "`set_index`" + ` equals ` + "`set_count`" + `.
4) ` + "`save_and_next`" + ` to write the folder and move to the next one.

` + "`reset_annotations`" + ` clears the current folder (or everything with ` + "`scope=all`" + `) and saves immediately.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
