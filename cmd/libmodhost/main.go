// SPDX-License-Identifier: MPL-2.0

// Command libmodhost is the module loader packaged as a C shared library.
// The host application links or dlopens it; native modules then query the
// registry through the modloader_* functions.
//
//	go build -buildmode=c-shared -o libmodhost.so ./cmd/libmodhost
//
// Configuration is read once when the library is attached. MODHOST_CONFIG
// names an explicit config file; otherwise the usual lookup applies.
package main

import (
	"context"
	"os"

	"github.com/modhost/modhost/internal/capi"
	"github.com/modhost/modhost/internal/config"
	"github.com/modhost/modhost/pkg/types"
)

const configFileEnv = "MODHOST_CONFIG"

// state is created once on attach and shared by every exported function.
var state *capi.Context

func init() {
	state = capi.Attach(context.Background(), capi.AttachOptions{
		ModloaderPath: selfPath(),
		Allocator:     cAllocator{},
		LoadOptions:   config.LoadOptions{ConfigFilePath: types.FilesystemPath(os.Getenv(configFileEnv))},
	})
}

func main() {}
