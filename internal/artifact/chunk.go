package artifact

import "fmt"

// MaxChunkBytes is the largest payload a single outbound Chunk may carry:
// exactly 4 194 285 bytes, leaving headroom under a 4 MiB frame limit (§6).
const MaxChunkBytes = 4*1024*1024 - 19

// egressChannelCapacity bounds the producer/consumer channel used by Egress,
// per §5's backpressure requirement (capacity 4 for egress framing).
const egressChannelCapacity = 4

// Chunk is the wire unit used by every streaming ingest/egress RPC (§6).
type Chunk struct {
	Data        []byte
	Description string
	Secret      []byte
}

// Ingest concatenates the Data of every chunk received on in, in order,
// and tracks the description and secret per §4.3: the first chunk's
// description is authoritative (later chunks must leave it empty), and the
// last non-empty secret wins.
func Ingest(in <-chan Chunk) (data []byte, description string, secret []byte, err error) {
	first := true
	for c := range in {
		data = append(data, c.Data...)
		if first {
			description = c.Description
			first = false
		} else if c.Description != "" {
			return nil, "", nil, fmt.Errorf("artifact: chunk description must only be set on the first chunk")
		}
		if len(c.Secret) > 0 {
			secret = c.Secret
		}
	}
	return data, description, secret, nil
}

// Egress fragments data into chunks of at most MaxChunkBytes, placing
// description only on the first chunk, and streams them over a bounded
// channel so a slow consumer applies backpressure to the producer (§5).
func Egress(data []byte, description string) <-chan Chunk {
	out := make(chan Chunk, egressChannelCapacity)
	go func() {
		defer close(out)
		if len(data) == 0 {
			out <- Chunk{Description: description}
			return
		}
		for offset := 0; offset < len(data); offset += MaxChunkBytes {
			end := offset + MaxChunkBytes
			if end > len(data) {
				end = len(data)
			}
			chunk := Chunk{Data: data[offset:end]}
			if offset == 0 {
				chunk.Description = description
			}
			out <- chunk
		}
	}()
	return out
}
