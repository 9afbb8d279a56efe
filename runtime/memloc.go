package runtime

// MemLoc names a result payload's location in a loaded extension's own
// linear memory, without reading or freeing it — for an embedder (such as
// the cabi facade) that wants to hand that memory straight to a foreign
// caller instead of paying the cost of the host decoding and re-encoding
// it. The caller becomes responsible for reading Len bytes at Offset and
// eventually freeing them via the extension's dealloc export.
type MemLoc struct {
	Offset int32
	Len    int32
}
