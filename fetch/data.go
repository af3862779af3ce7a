package fetch

import (
	"fmt"

	"github.com/vincent-petithory/dataurl"
)

// decodeDataURI decode data:[<mediatype>][;base64],<data>, the media type defaults to text/plain;charset=US-ASCII
func decodeDataURI(uri string) (*Payload, error) {
	data, err := dataurl.DecodeString(uri)
	if err != nil {
		return nil, fmt.Errorf("data uri: %s", err.Error())
	}
	return &Payload{ContentType: data.MediaType.String(), Body: data.Data}, nil
}
