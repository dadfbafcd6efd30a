package vectors

import (
	"encoding/base64"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
	"github.com/pyneda/upload-scanner/pkg/fileupload/mutation"
)

const (
	EICARVectorName   = "eicar"
	eicarBaseFileName = "EicarAntivirusTestFileUpload_"
	// Base64 of the 68 byte EICAR test string
	eicarEncoded = "WDVPIVAlQEFQWzRcUFpYNTQoUF4pN0NDKTd9JEVJQ0FSLVNUQU5EQVJELUFOVElWSVJVUy1URVNULUZJTEUhJEgrSCo="
)

func eicarContent() []byte {
	content, err := base64.StdEncoding.DecodeString(eicarEncoded)
	if err != nil {
		panic("vectors: invalid eicar payload: " + err.Error())
	}
	return content
}

// NewEICARVector uploads the EICAR antivirus test file. Getting it back
// unchanged means uploads are not scanned for malware.
func NewEICARVector() *Vector {
	content := eicarContent()
	original := build(eicarBaseFileName, parameter{operation: mutation.OnlyOriginalExtension})
	return &Vector{
		Name:           EICARVectorName,
		Classification: db.FileUploadMissingAntivirusCode,
		Rounds: []Round{{
			Payload: Payload{Name: "eicar test file", Content: content},
			Mutations: append(original, build(eicarBaseFileName,
				onlyProvided("txt", ContentTypeText),
				onlyProvided("com", "application/octet-stream"),
			)...),
		}},
		Matcher: matcher.NewHash(string(content), nil),
	}
}
