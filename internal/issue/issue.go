// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ModuleNotFoundId Id = iota + 1
	DirectoryNotFoundId
	ConfigLoadFailedId
	DependencyCycleId
	MissingDependenciesId
	ModuleLoadFailedId
	EntryPointFaultId
	UnsupportedPlatformId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module file not found!

The path you passed does not exist or is not a regular file.

## Things you can try:
- Check the path for typos
- List what modhost would pick up from a directory:
~~~
$ modhost scan /path/to/mods
~~~`,
	}

	directoryNotFoundIssue = &Issue{
		id: DirectoryNotFoundId,
		mdMsg: `
# Module directory not found!

The directory to scan does not exist or is not a directory.

## Things you can try:
- Create the directory, or point ` + "`paths.mods_dir`" + ` / ` + "`paths.libraries_dir`" + ` at an existing one
- Relative directories are resolved against ` + "`paths.root_load_path`" + `:
~~~
$ modhost config dump
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the modhost configuration file.

## Configuration file locations:
- Linux: ~/.config/modhost/config.cue
- macOS: ~/Library/Application Support/modhost/config.cue
- Windows: %APPDATA%\modhost\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ modhost config init
~~~

- Check the configuration syntax
- Point at a different file:
~~~
$ modhost --config ./config.cue config dump
~~~

## Example configuration:
~~~cue
application_id: "com.example.game"
paths: {
  root_load_path: "${MODHOST_ROOT:-$HOME/.modhost}"
  mods_dir: "mods"
}
scan: recursive: false
log: level: "info"
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Two or more modules import each other, so no order satisfies all of them.
modhost still loads them, in directory order, after everything it could order.

## Things you can try:
- Inspect the computed order:
~~~
$ modhost order /path/to/mods
~~~
- Break the cycle by moving shared code into a library loaded from ` + "`paths.libraries_dir`",
	}

	missingDependenciesIssue = &Issue{
		id: MissingDependenciesId,
		mdMsg: `
# Missing dependencies!

Some modules import libraries that are neither in the scanned directory nor
known system libraries. The platform loader will refuse to open them unless
it finds the library somewhere on its search path.

## Things you can try:
- Copy the missing library next to the modules
- If the library ships with the OS, add it to the allow-list:
~~~cue
scan: extra_system_libraries: ["libvulkan"]
~~~`,
	}

	moduleLoadFailedIssue = &Issue{
		id: ModuleLoadFailedId,
		mdMsg: `
# Module failed to load!

The platform loader refused to open one or more modules. Other modules were
still loaded; the failure is recorded and shown by ` + "`modhost load`" + `.

## Common causes:
- A dependency that could not be found (see ` + "`modhost validate`" + `)
- A module built for another architecture
- An unresolved symbol in the module itself

## Things you can try:
~~~
$ modhost --verbose load /path/to/mods
~~~`,
	}

	entryPointFaultIssue = &Issue{
		id: EntryPointFaultId,
		mdMsg: `
# A module entry point failed!

A module's ` + "`setup`" + `, ` + "`load`" + ` or ` + "`late_load`" + ` function could not be called.
modhost carried on with the remaining modules.

## Things you can try:
- Run with debug logging to see which call failed:
~~~
$ modhost --log-level debug load /path/to/mods
~~~`,
	}

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# Platform not supported!

modhost does not know how to open native modules on this operating system.

## Supported platforms:
- Linux and Android (ELF, .so)
- Windows (PE, .dll)
- macOS (Mach-O, .dylib)`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():      moduleNotFoundIssue,
		directoryNotFoundIssue.Id():   directoryNotFoundIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		dependencyCycleIssue.Id():     dependencyCycleIssue,
		missingDependenciesIssue.Id(): missingDependenciesIssue,
		moduleLoadFailedIssue.Id():    moduleLoadFailedIssue,
		entryPointFaultIssue.Id():     entryPointFaultIssue,
		unsupportedPlatformIssue.Id(): unsupportedPlatformIssue,
	}
)

// Values returns every catalogued issue ordered by ID.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
