// Package dicom provides a streaming codec for the DICOM file format as specified in
// [http://dicom.nema.org/medical/dicom/current/output/pdf/part05.pdf].
//
// The Reader turns bytes into structural events sent to an Observer: elements, the beginning and
// end of sequences and items, and the fragments of encapsulated data. A Reader never blocks. When
// its ByteSource runs short it returns Suspended and resumes where it stopped once more bytes have
// been written to the source, which allows it to be driven by a network connection. The
// DataSetBuilder observer materializes the events into a DataSet; other observers dump, log or
// index a stream without building anything.
//
// The Writer is the mirror image. Walk sends the nodes of a DataSet to it and it encodes them in a
// transfer syntax, with sequence and item lengths either defined up front, as computed by a
// LengthCalculator, or terminated by delimitation items.
//
// ReadFile, FileReader and WriteFile deal with the file envelope: the preamble, the DICM signature
// and the file meta information, which selects the transfer syntax of the rest of the file.
package dicom
