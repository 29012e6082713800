// Package layout houses the byte-exact decoders for the shared-memory heap
// structures initialized by the boot loader. These layouts are an ABI shared
// with firmware and every other processor in the SoC: field widths, offsets,
// and magics must never change interpretation. Decoding is pure and
// allocation-free; higher-level packages orchestrate the data.
package layout

var (
	// TableMagic is the four-byte magic at the start of the partition table
	// ("$TOC").
	TableMagic = []byte{0x24, 0x54, 0x4f, 0x43}

	// PartMagic is the four-byte magic at the start of every partition
	// header ("$PRT").
	PartMagic = []byte{0x24, 0x50, 0x52, 0x54}

	// InfoMagic is the four-byte magic of the region-info record trailing
	// the partition table ("SIII").
	InfoMagic = []byte{0x53, 0x49, 0x49, 0x49}
)

const (
	// SBLVersionIndex is the slot in the header's per-subsystem version
	// array that carries the boot loader's heap-layout version.
	SBLVersionIndex = 7

	// GlobalHeapVersion marks the legacy layout: one flat heap indexed by
	// the fixed table in the header.
	GlobalHeapVersion = 11

	// GlobalPartVersion marks the partitioned layout: the flat heap is
	// replaced by a dedicated global partition found through the table.
	GlobalPartVersion = 12

	// ItemLastFixed is the first item number open to runtime allocation.
	// Items below it belong to the boot loader and are rejected outright.
	ItemLastFixed = 8

	// ItemCount is the default highest accepted item number, for both the
	// flat heap and partitions. A region-info record may override it.
	ItemCount = 512

	// HostApps is the processor identifier of the application processor,
	// the local host for this implementation.
	HostApps = 0

	// GlobalHost is the pseudo host identifier naming the global partition
	// in the table (host0 == host1 == GlobalHost).
	GlobalHost = 0xfffe

	// HostCount bounds valid host identifiers: [0, HostCount).
	HostCount = 25

	// PrivateCanary is the sentinel written into every private entry
	// header. Both bytes are identical so no swapping is ever needed.
	PrivateCanary = 0xa5a5

	// AuxBaseMask clears the two reserved low bits of a global entry's
	// aux_base before comparing it against region bases.
	AuxBaseMask = 0xfffffffc

	// TableWindow is the size of the mapped window holding the partition
	// table, located that many bytes before the end of the primary region.
	TableWindow = 4096
)

// Global header layout. The legacy proc_comm block leads the header and is
// ignored by this implementation.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	0x000    64   proc_comm[4] (legacy command blocks)
//	0x040   128   version[32] (per-subsystem versions)
//	0x0C0     4   initialized (must be 1)
//	0x0C4     4   free_offset (first unallocated byte of the flat heap)
//	0x0C8     4   available (bytes left for allocation)
//	0x0CC     4   reserved (must be 0)
//	0x0D0  8192   toc[512] (global entries, 16 bytes each)
const (
	HdrProcCommOff    = 0x000
	HdrProcCommSize   = 64
	HdrVersionOff     = 0x040
	HdrVersionSlots   = 32
	HdrInitializedOff = 0x0C0
	HdrFreeOffsetOff  = 0x0C4
	HdrAvailableOff   = 0x0C8
	HdrReservedOff    = 0x0CC
	HdrTocOff         = 0x0D0

	// HeaderSize covers the header including the full table of contents.
	HeaderSize = HdrTocOff + ItemCount*GlobalEntrySize // 8400

	// HeaderWindow is the mapped window used while reading the header
	// during discovery.
	HeaderWindow = 4096
)

// Global entry layout (one fixed slot per item in the flat heap).
//
//	0x00  4  allocated (0 or 1; the publish word)
//	0x04  4  offset (into the region named by aux_base)
//	0x08  4  size (8-byte aligned)
//	0x0C  4  aux_base (bits 1:0 reserved; 0 means the primary region)
const (
	GEntAllocatedOff = 0x00
	GEntOffsetOff    = 0x04
	GEntSizeOff      = 0x08
	GEntAuxBaseOff   = 0x0C

	GlobalEntrySize = 16
)

// Partition table layout, found TableWindow bytes before the end of the
// primary region.
//
//	0x00   4  magic "$TOC"
//	0x04   4  version (must be 1)
//	0x08   4  num_entries
//	0x0C  20  reserved
//	0x20  ..  entries
const (
	TblMagicOff   = 0x00
	TblVersionOff = 0x04
	TblCountOff   = 0x08

	TableHeaderSize = 0x20
	TableVersion    = 1
)

// Partition table entry layout.
//
//	0x00  4  offset of the partition within the primary region
//	0x04  4  size of the partition
//	0x08  4  flags (unused)
//	0x0C  2  host0
//	0x0E  2  host1
//	0x10  4  cacheline (alignment for cached entries)
//	0x14 28  reserved
const (
	TEntOffsetOff    = 0x00
	TEntSizeOff      = 0x04
	TEntFlagsOff     = 0x08
	TEntHost0Off     = 0x0C
	TEntHost1Off     = 0x0E
	TEntCachelineOff = 0x10

	TableEntrySize = 48
)

// Region-info record, directly after the last table entry.
//
//	0x00  4  magic "SIII"
//	0x04  4  size of the region
//	0x08  4  base address of the region
//	0x0C  4  reserved
//	0x10  2  num_items (overrides the default item ceiling)
const (
	InfoMagicOff    = 0x00
	InfoSizeOff     = 0x04
	InfoBaseOff     = 0x08
	InfoNumItemsOff = 0x10

	RegionInfoSize = 18
)

// Partition header layout, at the start of every partition.
//
//	0x00  4  magic "$PRT"
//	0x04  2  host0
//	0x06  2  host1
//	0x08  4  size (must match the table entry)
//	0x0C  4  offset_free_uncached (grows forward from the header)
//	0x10  4  offset_free_cached (grows backward from the end)
//	0x14 12  reserved
const (
	PHdrMagicOff        = 0x00
	PHdrHost0Off        = 0x04
	PHdrHost1Off        = 0x06
	PHdrSizeOff         = 0x08
	PHdrFreeUncachedOff = 0x0C
	PHdrFreeCachedOff   = 0x10

	PartHeaderSize = 32
)

// Private entry header layout, preceding (uncached) or following (cached)
// each item payload within a partition.
//
//	0x00  2  canary (PrivateCanary)
//	0x02  2  item
//	0x04  4  size of the data, including padding bytes (8-byte aligned)
//	0x08  2  padding_data (trailing pad bytes inside size)
//	0x0A  2  padding_hdr (pad between header and payload, uncached only)
//	0x0C  4  reserved
const (
	PEntCanaryOff      = 0x00
	PEntItemOff        = 0x02
	PEntSizeOff        = 0x04
	PEntPaddingDataOff = 0x08
	PEntPaddingHdrOff  = 0x0A

	PrivateEntrySize = 16
)
