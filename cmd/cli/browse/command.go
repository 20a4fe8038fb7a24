package browse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/codedeck/internal/backend"
	"github.com/temirov/codedeck/internal/filebrowser"
	"github.com/temirov/codedeck/internal/utils"
	"github.com/temirov/codedeck/internal/utils/flags"
	pathutils "github.com/temirov/codedeck/internal/utils/path"
)

const (
	listCommandUseConstant              = "ls [path]"
	listCommandShortDescriptionConstant = "List the visible entries of a directory"
	listCommandLongDescriptionConstant  = "ls lists the immediate, non-hidden entries of a directory, directories first, each group ordered by case-insensitive name."
	readCommandUseConstant              = "cat <path>"
	readCommandShortDescriptionConstant = "Print a file as text"
	readCommandLongDescriptionConstant  = "cat prints the whole file; bytes that are not valid UTF-8 are replaced with U+FFFD."
	formatFlagNameConstant              = "format"
	formatFlagDescriptionConstant       = "Output format for the listing."
	subdirectoryFlagNameConstant        = "subdirectory"
	subdirectoryFlagDescriptionConstant = "Treat the path as a tree node being expanded."
	outputFormatTextConstant            = "text"
	outputFormatJSONConstant            = "json"
	defaultListingPathConstant          = "."
	directoryEntrySuffixConstant        = "/"
	jsonIndentConstant                  = "  "
	backendUnavailableMessageConstant   = "file browser backend not configured"
	listingErrorTemplateConstant        = "unable to list %s: %w"
	readErrorTemplateConstant           = "unable to read %s: %w"
	listingCompletedMessageConstant     = "directory listed"
	logFieldPathConstant                = "path"
	logFieldEntryCountConstant          = "entry_count"
)

var errBackendUnavailable = errors.New(backendUnavailableMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ListCommandBuilder assembles the ls command.
type ListCommandBuilder struct {
	LoggerProvider LoggerProvider
	BackendFactory backend.Factory
	HomeExpander   *pathutils.HomeExpander
}

// Build constructs the ls command.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Long:  listCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	outputFormats := []string{outputFormatTextConstant, outputFormatJSONConstant}
	command.Flags().Var(
		flags.NewChoiceValue(outputFormatTextConstant, outputFormats),
		formatFlagNameConstant,
		flags.FormatChoiceUsage(outputFormatTextConstant, outputFormats, formatFlagDescriptionConstant),
	)
	command.Flags().Bool(subdirectoryFlagNameConstant, false, subdirectoryFlagDescriptionConstant)

	return command, nil
}

func (builder *ListCommandBuilder) run(command *cobra.Command, arguments []string) error {
	directoryPath := defaultListingPathConstant
	if len(arguments) > 0 && len(strings.TrimSpace(arguments[0])) > 0 {
		directoryPath = resolveHomeExpander(builder.HomeExpander).Expand(strings.TrimSpace(arguments[0]))
	}

	fileBrowser, backendError := resolveFileBrowser(builder.BackendFactory)
	if backendError != nil {
		return backendError
	}

	listSubdirectory, _ := command.Flags().GetBool(subdirectoryFlagNameConstant)
	var entries []filebrowser.FileEntry
	var listingError error
	if listSubdirectory {
		entries, listingError = fileBrowser.ListSubdirectory(directoryPath)
	} else {
		entries, listingError = fileBrowser.ListDirectory(directoryPath)
	}
	if listingError != nil {
		return fmt.Errorf(listingErrorTemplateConstant, directoryPath, listingError)
	}

	resolveLogger(builder.LoggerProvider).Debug(
		listingCompletedMessageConstant,
		zap.String(logFieldPathConstant, directoryPath),
		zap.Int(logFieldEntryCountConstant, len(entries)),
	)

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	if command.Flags().Lookup(formatFlagNameConstant).Value.String() == outputFormatJSONConstant {
		return writeJSON(outputWriter, entries)
	}
	return writeText(outputWriter, entries)
}

// ReadCommandBuilder assembles the cat command.
type ReadCommandBuilder struct {
	LoggerProvider LoggerProvider
	BackendFactory backend.Factory
	HomeExpander   *pathutils.HomeExpander
}

// Build constructs the cat command.
func (builder *ReadCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   readCommandUseConstant,
		Short: readCommandShortDescriptionConstant,
		Long:  readCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *ReadCommandBuilder) run(command *cobra.Command, arguments []string) error {
	filePath := resolveHomeExpander(builder.HomeExpander).Expand(strings.TrimSpace(arguments[0]))

	fileBrowser, backendError := resolveFileBrowser(builder.BackendFactory)
	if backendError != nil {
		return backendError
	}

	content, readError := fileBrowser.ReadFile(filePath)
	if readError != nil {
		return fmt.Errorf(readErrorTemplateConstant, filePath, readError)
	}

	_, writeError := io.WriteString(utils.NewFlushingWriter(command.OutOrStdout()), content)
	return writeError
}

func writeText(outputWriter io.Writer, entries []filebrowser.FileEntry) error {
	for _, entry := range entries {
		displayName := entry.Name
		if entry.IsDirectory {
			displayName += directoryEntrySuffixConstant
		}
		if _, writeError := fmt.Fprintln(outputWriter, displayName); writeError != nil {
			return writeError
		}
	}
	return nil
}

func writeJSON(outputWriter io.Writer, entries []filebrowser.FileEntry) error {
	if entries == nil {
		entries = []filebrowser.FileEntry{}
	}
	encoder := json.NewEncoder(outputWriter)
	encoder.SetIndent("", jsonIndentConstant)
	return encoder.Encode(entries)
}

func resolveFileBrowser(factory backend.Factory) (*filebrowser.Lister, error) {
	if factory == nil {
		return nil, errBackendUnavailable
	}
	wiredBackend, backendError := factory(nil)
	if backendError != nil {
		return nil, backendError
	}
	return wiredBackend.FileBrowser, nil
}

func resolveHomeExpander(expander *pathutils.HomeExpander) *pathutils.HomeExpander {
	if expander == nil {
		return pathutils.NewHomeExpander()
	}
	return expander
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
