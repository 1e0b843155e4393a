package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Configuration
	CfgUnknownAlgorithm Code = 1001
	CfgCrossOriginUnset Code = 1002

	// Chunk graph
	GraphDuplicateChunk Code = 2001
	GraphMissingChunk   Code = 2002
	GraphMissingAsset   Code = 2003

	// Asset patching
	PatchUnresolvedCycle      Code = 3001
	PatchHotUpdateFragile     Code = 3002
	PatchNonDeterministicName Code = 3003

	// Registry / fill pass
	FillUnreadableAsset Code = 4001

	// Tag injection
	TagMissingDigest      Code = 5001
	TagMalformedIntegrity Code = 5002
)

func (c Code) String() string {
	switch c {
	case CfgUnknownAlgorithm:
		return "CfgUnknownAlgorithm"
	case CfgCrossOriginUnset:
		return "CfgCrossOriginUnset"
	case GraphDuplicateChunk:
		return "GraphDuplicateChunk"
	case GraphMissingChunk:
		return "GraphMissingChunk"
	case GraphMissingAsset:
		return "GraphMissingAsset"
	case PatchUnresolvedCycle:
		return "PatchUnresolvedCycle"
	case PatchHotUpdateFragile:
		return "PatchHotUpdateFragile"
	case PatchNonDeterministicName:
		return "PatchNonDeterministicName"
	case FillUnreadableAsset:
		return "FillUnreadableAsset"
	case TagMissingDigest:
		return "TagMissingDigest"
	case TagMalformedIntegrity:
		return "TagMalformedIntegrity"
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}
