package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// PrettyJson formata um valor (ou bytes JSON) com indentação para exibição na CLI
func PrettyJson(in any) string {
	if raw, ok := in.([]byte); ok {
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "\t"); err != nil {
			fmt.Println(err)
		}
		return out.String()
	}

	buffer, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(in, "", "\t")
	if err != nil {
		fmt.Println(err)
	}
	return string(buffer)
}
