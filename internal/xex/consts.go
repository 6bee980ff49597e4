package xex

// DefaultBaseAddress is the conventional guest image base for retail
// titles, used when the directory does not declare one.
const DefaultBaseAddress uint32 = 0x82000000

// Optional-header directory keys, already masked (low byte cleared).
const (
	HdrEntryPoint       uint32 = 0x00010100
	HdrImageBaseAddress uint32 = 0x00010200
	HdrImportLibraries  uint32 = 0x00010300
	HdrPEModuleName     uint32 = 0x00018300
	HdrTLSInfo          uint32 = 0x00020100
	HdrDefaultStackSize uint32 = 0x00020200
	HdrExecutionInfo    uint32 = 0x00040000
)

var headerNames = map[uint32]string{
	HdrEntryPoint:       "Entry Point",
	HdrImageBaseAddress: "Image Base Address",
	HdrImportLibraries:  "Import Libraries",
	HdrPEModuleName:     "PE Module Name",
	HdrTLSInfo:          "TLS Info",
	HdrDefaultStackSize: "Default Stack Size",
	HdrExecutionInfo:    "Execution Info",
}

// HeaderName returns a display name for a known directory key, or the
// empty string for an unrecognized one.
func HeaderName(key uint32) string {
	return headerNames[key]
}
