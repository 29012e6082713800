// Package smem manages a shared-memory heap used by the independent
// processors of a SoC to exchange small named data items.
//
// The heap lives in a physical memory region initialized by the boot loader
// and mapped by every processor; no kernel or OS is assumed on the remote
// side. Two layout generations exist. The legacy generation is a single flat
// heap fronted by a global header with a fixed 512-slot table of contents.
// The partitioned generation carves the region into per-processor-pair
// partitions described by a table at the end of the region, with a dedicated
// global partition replacing the flat heap.
//
// Items are identified by small integers and are never freed: allocation is
// monotonic for the life of the system. Every operation serializes against
// the other processors through a hardware mutex; remote readers that take no
// lock at all are kept consistent by publish ordering (entry contents become
// durable before the single store that makes them reachable).
//
// A Heap is constructed with New from a mapped primary region, an optional
// auxiliary region, a Mapper, and a hwlock.Lock, and discovers the layout
// from the boot-loader header. After a power transition that loses the
// mapping, detach with Close and attach again with New; the heap contents
// are preserved by firmware and only re-discovery is needed.
package smem
