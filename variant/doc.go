// Package variant converts VCF text into Avro object container files.
//
// A BlockReader slices the input into line-aligned TextBlocks after parsing
// the header once. A Transformer turns each block into a compressed Avro data
// block, a BlockSink frames the blocks into the output file, and pipeline.Run
// drives the three with bounded parallelism. Convert wires everything
// together and writes the <output>.meta side file on success.
package variant
