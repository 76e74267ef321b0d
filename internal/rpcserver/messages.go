// Package rpcserver implements the RPC surface (§4.7, §6): a hand-written
// gRPC service description wired to a custom codec, since this workspace
// cannot invoke protoc. Message types below mirror the wire shapes in
// §6 exactly; the ServiceDesc in service.go plays the role that
// protoc-gen-go-grpc's generated code would otherwise play.
package rpcserver

// Empty carries no data; used for get_challenge/refresh_session requests
// and responses with no payload.
type Empty struct{}

// Chunk is the streaming unit used by every ingest/egress RPC (§6, §4.3).
type Chunk struct {
	Data        []byte
	Description string
	Secret      []byte
}

// Reference identifies a stored artifact plus its display metadata (§6).
type Reference struct {
	Identifier  string
	Name        string
	Description string
	Meta        []byte
}

// RemoteDatasetReference is the reference returned by send_dataset: the
// dataset id plus per-tensor input/label handles (§6).
type RemoteDatasetReference struct {
	Identifier string
	Inputs     []Reference
	Labels     Reference
}

// TrainConfig is the input to the train RPC (§6).
type TrainConfig struct {
	Model        Reference
	Dataset      string
	Epochs       uint32
	BatchSize    uint32
	LearningRate float64
	Device       string
	Optimizer    string
	Eps          float64 // >= 0 enables DP mode
	MaxGradNorm  float64
	Resume       bool
}

// TestConfig mirrors TrainConfig without optimizer fields (§6).
type TestConfig struct {
	Model     Reference
	Dataset   string
	BatchSize uint32
	Device    string
}

// Metric is the wire form of a training/evaluation progress point (§6).
type Metric struct {
	Epoch        int32
	Batch        int32
	Value        float32
	TotalEpochs  int32
	TotalBatches int32
}

// ChallengeResponse carries the 32 random bytes issued by get_challenge.
type ChallengeResponse struct {
	Value []byte
}

// ClientInfo is the client descriptor plus signature metadata presented at
// create_session (the signatures themselves travel in request metadata
// headers per §4.6 step 2, not in this message body).
type ClientInfo struct {
	Name string
}

// SessionInfo carries the issued session token.
type SessionInfo struct {
	Token []byte
}

// DeviceList and OptimizerList back list_devices/list_optimizers.
type DeviceList struct {
	Devices []string
}

type OptimizerList struct {
	Optimizers []string
}

// ReferenceList backs list_models/list_datasets.
type ReferenceList struct {
	References []Reference
}

// ModifyTensorRequest backs the modify_tensor RPC (§8 boundary behavior).
type ModifyTensorRequest struct {
	Identifier string
	DType      string
}
