/*
Package nexfile reads and writes NeuroExplorer data files.

Two generations are supported:

	.nex   format-v1: 32-bit ticks, samples quantized to 16-bit integers
	.nex5  format-v5: 64-bit ticks, 32-bit float or 16-bit samples, and an
	       optional JSON metadata block after the last payload

Reading detects the generation from the magic number:

	s, err := nexfile.Read("session.nex5")

Writing picks the generation from the extension unless WriterConfig.Format
says otherwise:

	w := nexfile.NewWriter(nexfile.WriterConfig{SampleEncoding: nexfile.SampleInt16})
	err := w.Write(s, "session.nex5")

The writer plans the whole file before producing any bytes: it walks the
variables in the order neurons, events, intervals, markers, continuous,
waveforms, assigns every payload offset and runs all range checks. A file
is written with a single write call, so a failing session never leaves a
partial file behind.

Quantization maps the largest absolute sample of a variable onto 32767.
The scale is recorded in the variable header and stored back in the
Coefficient field of the variable on write and on read.

Metadata of .nex5 files is advisory. A block that cannot be parsed is
logged and counted in metrics, and the session is returned without it.
*/
package nexfile
