package maps

import "github.com/mitchellh/mapstructure"

// Map2Struct decodes a raw configuration map into the output structure using
// reflection. output must be a pointer to a map or struct. Keys are matched
// case-insensitively, so definition files may use lowerCamelCase.
func Map2Struct(input interface{}, output interface{}) error {
	return mapstructure.Decode(input, output)
}

// Map2StructWeakly behaves like Map2Struct but additionally converts between
// compatible kinds, e.g. a JSON number into an int64 field.
func Map2StructWeakly(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
