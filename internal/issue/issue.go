// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Id identifies a catalog entry.
type Id int

const (
	ContainerEngineNotFoundId Id = iota + 1
	BaseImageUnavailableId
	ManifestMissingId
	ContextUnreadableId
	BuildFailedId
	ConfigLoadFailedId
)

// MarkdownMsg is the raw markdown body of a catalog entry.
type MarkdownMsg string

// Issue is a help page for a well-known failure class.
type Issue struct {
	id    Id
	mdMsg MarkdownMsg
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue's markdown for terminal display.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

pybox needs a container engine to build and launch images, but neither
Podman nor Docker is available.

## Things you can try:
- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Install Docker:
  - https://docs.docker.com/get-docker/

- Configure your preferred engine in the pybox config:
~~~cue
container_engine: "podman"  // or "docker"
~~~`,
	}

	baseImageUnavailableIssue = &Issue{
		id: BaseImageUnavailableId,
		mdMsg: `
# Base image unavailable!

The pinned base runtime image could not be pulled from its registry.

## Common causes:
- No network connectivity to the registry
- A typo in the image reference
- The tag no longer exists upstream

## Things you can try:
- Pull it manually to see the full engine output:
~~~
$ docker pull python:3.11
~~~

- Override the base image:
~~~
$ pybox build --base python:3.12 .
~~~`,
	}

	manifestMissingIssue = &Issue{
		id: ManifestMissingId,
		mdMsg: `
# Dependency manifest missing!

The build context has no readable dependency manifest, so the dependency
install step cannot run. This is a fatal build error and is never retried.

## Things you can try:
- Create a manifest at the context root:
~~~
$ echo "flask==3.0.0" > requirements.txt
~~~

- Or point pybox at its actual location:
~~~
$ pybox build --manifest deps/requirements.txt .
~~~`,
	}

	contextUnreadableIssue = &Issue{
		id: ContextUnreadableId,
		mdMsg: `
# Build context unreadable!

The build context directory is empty, missing, or not readable, so nothing
can be staged into the image.

## Things you can try:
- Check the context path passed to pybox
- Check directory permissions
- Run from the project root:
~~~
$ cd /path/to/your/project
$ pybox build .
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Image build failed!

The container engine reported a build failure. A failed build produces no
image artifact; repeating the build with the same context fails the same way.

## Things you can try:
- Re-run with verbose mode for the full engine output:
~~~
$ pybox --verbose build .
~~~

- If the failure is in the dependency install step, check the manifest for
  unresolvable pins
- Try a clean build:
~~~
$ pybox build --no-cache .
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the pybox configuration file.

## Configuration file locations:
- Linux: ~/.config/pybox/config.cue
- macOS: ~/Library/Application Support/pybox/config.cue
- Windows: %APPDATA%\pybox\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ pybox config init
~~~

- Check the configuration syntax, or remove the file to use defaults

## Example configuration:
~~~cue
container_engine: "podman"
base_image:       "python:3.11"

ui: {
	verbose: false
}
~~~`,
	}

	issues = map[Id]*Issue{
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		baseImageUnavailableIssue.Id():    baseImageUnavailableIssue,
		manifestMissingIssue.Id():         manifestMissingIssue,
		contextUnreadableIssue.Id():       contextUnreadableIssue,
		buildFailedIssue.Id():             buildFailedIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
	}
)

// Values returns all catalog entries.
func Values() []*Issue {
	return maps.Values(issues)
}

// Get returns the catalog entry for an id, or nil if unknown.
func Get(id Id) *Issue {
	return issues[id]
}
