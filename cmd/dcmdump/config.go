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

package main

import (
	"fmt"
	"os"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
	"sigs.k8s.io/yaml"
)

// config holds the settings of a transcode. It is read from YAML; the keys are the json names of
// the fields.
type config struct {
	// Syntax is the UID of the transfer syntax to transcode to. The source syntax is kept when it
	// is empty.
	Syntax string `json:"syntax"`

	dicom.WriteOptions
}

// loadConfig reads the configuration at path. The default write options apply to keys the file
// does not set, and to everything when path is empty.
func loadConfig(path string) (config, error) {
	cfg := config{WriteOptions: dicom.DefaultWriteOptions}
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("reading config: %v", err)
	}
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return config{}, fmt.Errorf("parsing config %s: %v", path, err)
	}
	return cfg, nil
}

// syntax returns the transfer syntax to write a file read in src
func (c config) syntax(src dicom.TransferSyntax) dicom.TransferSyntax {
	if c.Syntax == "" {
		return src
	}
	return dicom.LookupTransferSyntax(c.Syntax)
}
