// Package container writes Avro object container files whose data blocks are
// produced independently of the file writer.
//
// Workers serialize and compress records into a Block with a BlockBuilder;
// a single Writer frames blocks in the order it receives them. Files written
// here are readable by any Avro object container reader.
package container
