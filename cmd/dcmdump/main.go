// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// dcmdump prints the elements of DICOM files and optionally transcodes a file to another
// transfer syntax.
//
//	dcmdump [-v] [-config write.yaml] [-syntax UID] [-o out.dcm] file.dcm ...
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
	"github.com/rs/zerolog"
)

var (
	dashv      bool
	dashconfig string
	dasho      string
	dashsyntax string
)

func init() {
	flag.BoolVar(&dashv, "v", false, "log every parse event")
	flag.StringVar(&dashconfig, "config", "", "YAML file of write options for -o")
	flag.StringVar(&dasho, "o", "", "transcode the input to this file")
	flag.StringVar(&dashsyntax, "syntax", "", "transfer syntax UID for -o (default: the input syntax)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	level := zerolog.InfoLevel
	if dashv {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := loadConfig(dashconfig)
	if err != nil {
		exitf("%s", err)
	}
	if dashsyntax != "" {
		cfg.Syntax = dashsyntax
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}
	if dasho != "" && len(args) != 1 {
		exitf("-o needs exactly one input")
	}

	o := bufio.NewWriter(os.Stdout)
	for _, arg := range args {
		f, err := dumpPath(o, arg, log)
		if err != nil {
			o.Flush()
			exitf("input %s: %s", arg, err)
		}
		log.Debug().Str("input", arg).Stringer("syntax", f.Syntax).Stringer("format", f.Format).Msg("read")
		if dasho != "" {
			if err := transcodePath(dasho, f, cfg); err != nil {
				o.Flush()
				exitf("output %s: %s", dasho, err)
			}
			log.Info().Str("output", dasho).Stringer("syntax", cfg.syntax(f.Syntax)).Msg("transcoded")
		}
	}
	if err := o.Flush(); err != nil {
		exitf("%s", err)
	}
}

func dumpPath(w io.Writer, arg string, log zerolog.Logger) (*dicom.File, error) {
	if arg == "-" {
		return dump(w, os.Stdin, log)
	}
	in, err := os.Open(arg)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return dump(w, in, log)
}

// dump writes one line per element of the file read from r and returns the file
func dump(w io.Writer, r io.Reader, log zerolog.Logger) (*dicom.File, error) {
	meta := dicom.NewDataSetBuilder(nil, dicom.ResolveByteOrder)
	data := dicom.NewDataSetBuilder(nil, dicom.ResolveByteOrder)
	fr := dicom.NewFileReader(
		dicom.MultiObserver{dicom.NewDumpObserver(w, dicom.StandardDictionary), meta},
		dicom.MultiObserver{dicom.NewDumpObserver(w, dicom.StandardDictionary), data, dicom.NewLogObserver(log)},
		dicom.WithLogger(log),
	)
	src := dicom.NewStreamByteSource(bufio.NewReader(r), binary.LittleEndian)
	switch res, err := fr.Read(src); res {
	case dicom.Error:
		return nil, err
	case dicom.Suspended:
		return nil, fmt.Errorf("reading file: %w", dicom.ErrUnexpectedEOF)
	}
	return &dicom.File{
		Preamble: fr.Preamble(),
		Meta:     meta.DataSet(),
		DataSet:  data.DataSet(),
		Syntax:   fr.Syntax(),
		Format:   fr.Format(),
	}, nil
}

func transcodePath(path string, f *dicom.File, cfg config) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := transcode(out, f, cfg); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// transcode writes f to w in the syntax chosen by cfg. Files read without file meta information
// get a new one.
func transcode(w io.Writer, f *dicom.File, cfg config) error {
	syntax := cfg.syntax(f.Syntax)
	var meta *dicom.DataSet
	if f.Meta.Len() == 0 {
		var err error
		if meta, err = dicom.NewFileMetaInformation(f.DataSet, syntax); err != nil {
			return err
		}
	} else {
		meta = f.Meta.Clone()
		meta.Add(dicom.NewStringElement(dicom.TransferSyntaxUIDTag, dicom.UIVR, syntax.UID))
	}
	return dicom.WriteFile(w, meta, f.DataSet, cfg.WriteOptions)
}
