package vectors

import (
	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
)

const (
	PHPVectorName     = "php"
	phpBaseFileName   = "SimplePHPFileUpload_"
	phpExpectedOutput = "SimplePHPFileUpload_SasanLabs_ZAP_Identifier"
	phpPayload        = `<?php echo "SimplePHPFileUpload"."_SasanLabs_ZAP_Identifier" ?>`
)

var (
	phpExtensions       = []string{"php", "php3", "php5", "phtml"}
	phpExtendedVariants = []string{"Php", "PHP", "Php3", "PHP3", "Php5", "PHP5", "Phtml", "PHTML"}
)

// phpParametersFor covers one extension. The last entry keeps the original
// extension at the end, which is executed when the server maps handlers by
// any extension in the name (AddHandler).
func phpParametersFor(extension string) []parameter {
	return []parameter{
		onlyProvided(extension, ""),
		onlyProvided(extension, ContentTypePHP),
		prefixOriginal(extension, ""),
		prefixOriginal(extension, ContentTypePHP),
		suffixOriginal(extension, ""),
	}
}

func phpDefaultParameters() []parameter {
	var parameters []parameter
	for _, extension := range phpExtensions {
		parameters = append(parameters, phpParametersFor(extension)...)
	}
	return append(parameters,
		withNullByte("php", ""),
		withNullByte("php", ContentTypePHP),
		withEncodedNullByte("php", ""),
		withEncodedNullByte("php", ContentTypePHP),
	)
}

func phpExtendedParameters() []parameter {
	var parameters []parameter
	for _, extension := range phpExtendedVariants {
		parameters = append(parameters, phpParametersFor(extension)...)
	}
	return parameters
}

// NewPHPVector uploads a PHP script echoing a marker split in two, so only an
// executed script can return the joined marker.
func NewPHPVector() *Vector {
	payload := Payload{Name: "php script", Content: []byte(phpPayload)}
	return &Vector{
		Name:           PHPVectorName,
		Classification: db.FileUploadRcePhpCode,
		Rounds: defaultAndExtended(payload,
			build(phpBaseFileName, phpDefaultParameters()...),
			build(phpBaseFileName, phpExtendedParameters()...),
		),
		Matcher: matcher.NewContains(phpExpectedOutput, nil),
	}
}
