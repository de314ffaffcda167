package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName задаёт content-subtype, под которым сообщения сервиса передаются по сети
const CodecName = "json"

// jsonCodec сериализует сообщения сервиса в JSON
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
