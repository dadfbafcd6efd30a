package vectors

import (
	"embed"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
)

const (
	ImageJSPVectorName     = "image_jsp"
	imageJSPBaseFileName   = "ImageWithJSPSnippetFileUpload_"
	imageJSPExpectedOutput = "ImageWithJSPSnippetFileUpload_SasanLabs_ZAP_Identifier"
)

// Valid 1x1 images carrying a JSP expression that prints the marker, either
// inside a comment block or appended after the image data.
//
//go:embed payloads/*.gif payloads/*.jpg
var imagePayloads embed.FS

var imagePayloadFiles = []struct {
	name string
	path string
}{
	{"gif with jsp in comment", "payloads/jsp_in_comment.gif"},
	{"gif with appended jsp", "payloads/jsp_appended.gif"},
	{"jpeg with jsp in comment", "payloads/jsp_in_comment.jpg"},
	{"jpeg with appended jsp", "payloads/jsp_appended.jpg"},
}

func mustReadPayload(path string) []byte {
	content, err := imagePayloads.ReadFile(path)
	if err != nil {
		panic("vectors: missing embedded payload " + path + ": " + err.Error())
	}
	return content
}

// NewImageJSPVector uploads images that pass image validation but carry a JSP
// snippet. Each image is tried over the default mutations and then, at the
// top intensity, over the extended ones before moving to the next image.
func NewImageJSPVector() *Vector {
	defaults := build(imageJSPBaseFileName, jspDefaultParameters("jsp")...)
	extended := build(imageJSPBaseFileName, caseVariantParameters(jspExtendedVariants, ContentTypeJSP, onlyProvided, prefixOriginal)...)

	var rounds []Round
	for _, file := range imagePayloadFiles {
		payload := Payload{Name: file.name, Content: mustReadPayload(file.path)}
		rounds = append(rounds, defaultAndExtended(payload, defaults, extended)...)
	}
	return &Vector{
		Name:           ImageJSPVectorName,
		Classification: db.FileUploadRceImageJspCode,
		Rounds:         rounds,
		Matcher:        matcher.NewContains(imageJSPExpectedOutput, nil),
	}
}
