package filebrowser

import (
	"cmp"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/codedeck/internal/filesystem"
	"github.com/temirov/codedeck/internal/textcodec"
)

const (
	hiddenEntryPrefixConstant              = "."
	fileSystemNotConfiguredMessageConstant = "file browser filesystem not configured"
	listingStartedMessageConstant          = "reading directory contents"
	listingCompletedMessageConstant        = "read directory contents"
	listingFailedMessageConstant           = "failed to read directory contents"
	entryProcessedMessageConstant          = "processing directory entry"
	readFileStartedMessageConstant         = "reading file"
	readFileCompletedMessageConstant       = "read file"
	readFileFailedMessageConstant          = "failed to read file"
	logFieldOperationConstant              = "operation"
	logFieldPathConstant                   = "path"
	logFieldEntryCountConstant             = "entry_count"
	logFieldIsDirectoryConstant            = "is_directory"
	logFieldContentLengthConstant          = "content_length"
)

// Operation names reported in errors and to the OperationObserver.
const (
	OperationListDirectory    = "list directory"
	OperationListSubdirectory = "list subdirectory"
	OperationReadFile         = "read file"
)

// ErrFileSystemNotConfigured indicates the lister was created without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// FileEntry is one immediate child of a listed directory. Children is never filled by a
// listing; callers list the entry's Path again to expand it. The wire names use snake_case like
// terminal.CommandResult, and an unexpanded entry encodes children as null.
type FileEntry struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	IsDirectory bool        `json:"is_directory"`
	Children    []FileEntry `json:"children"`
}

// OperationObserver is told the outcome of every listing and file read. A nil failure means success.
type OperationObserver interface {
	OperationCompleted(operation string, failure error)
}

// Dependencies enumerates collaborators required by the Lister.
type Dependencies struct {
	FileSystem        filesystem.FileSystem
	Logger            *zap.Logger
	TextDecoder       *textcodec.Decoder
	OperationObserver OperationObserver
}

// Lister lists directories and reads files for the editor's file tree.
type Lister struct {
	fileSystem        filesystem.FileSystem
	logger            *zap.Logger
	textDecoder       *textcodec.Decoder
	operationObserver OperationObserver
}

// NewLister constructs a Lister from the provided dependencies.
func NewLister(dependencies Dependencies) (*Lister, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{
		fileSystem:        dependencies.FileSystem,
		logger:            logger,
		textDecoder:       dependencies.TextDecoder,
		operationObserver: dependencies.OperationObserver,
	}, nil
}

// ListDirectory returns the visible immediate children of directoryPath, directories first and
// then files, each group ordered by case-insensitive name.
func (lister *Lister) ListDirectory(directoryPath string) ([]FileEntry, error) {
	return lister.listShallow(OperationListDirectory, directoryPath)
}

// ListSubdirectory has the ListDirectory contract; it marks the lazy expansion of a tree node.
func (lister *Lister) ListSubdirectory(directoryPath string) ([]FileEntry, error) {
	return lister.listShallow(OperationListSubdirectory, directoryPath)
}

// ReadFile returns the whole file as text. Bytes that are not valid text are replaced with U+FFFD.
func (lister *Lister) ReadFile(filePath string) (string, error) {
	lister.logger.Debug(readFileStartedMessageConstant, zap.String(logFieldPathConstant, filePath))

	fileContent, readError := lister.fileSystem.ReadFile(filePath)
	if readError != nil {
		operationError := classifyFailure(OperationReadFile, filePath, readError)
		lister.logger.Warn(readFileFailedMessageConstant, zap.String(logFieldPathConstant, filePath), zap.Error(operationError))
		lister.notify(OperationReadFile, operationError)
		return "", operationError
	}

	text := lister.textDecoder.Decode(fileContent)
	lister.logger.Debug(readFileCompletedMessageConstant, zap.String(logFieldPathConstant, filePath), zap.Int(logFieldContentLengthConstant, len(text)))
	lister.notify(OperationReadFile, nil)
	return text, nil
}

func (lister *Lister) listShallow(operation string, directoryPath string) ([]FileEntry, error) {
	lister.logger.Debug(listingStartedMessageConstant, zap.String(logFieldOperationConstant, operation), zap.String(logFieldPathConstant, directoryPath))

	entries, listingError := lister.readEntries(operation, directoryPath)
	if listingError != nil {
		lister.logger.Warn(
			listingFailedMessageConstant,
			zap.String(logFieldOperationConstant, operation),
			zap.String(logFieldPathConstant, directoryPath),
			zap.Error(listingError),
		)
		lister.notify(operation, listingError)
		return nil, listingError
	}

	lister.logger.Debug(
		listingCompletedMessageConstant,
		zap.String(logFieldOperationConstant, operation),
		zap.String(logFieldPathConstant, directoryPath),
		zap.Int(logFieldEntryCountConstant, len(entries)),
	)
	lister.notify(operation, nil)
	return entries, nil
}

func (lister *Lister) notify(operation string, failure error) {
	if lister.operationObserver != nil {
		lister.operationObserver.OperationCompleted(operation, failure)
	}
}

func (lister *Lister) readEntries(operation string, directoryPath string) ([]FileEntry, error) {
	directoryInfo, statError := lister.fileSystem.Stat(directoryPath)
	if statError != nil {
		return nil, classifyFailure(operation, directoryPath, statError)
	}
	if !directoryInfo.IsDir() {
		return nil, OperationError{Operation: operation, Path: directoryPath, Kind: ErrNotADirectory}
	}

	directoryEntries, readError := lister.fileSystem.ReadDir(directoryPath)
	if readError != nil {
		return nil, OperationError{Operation: operation, Path: directoryPath, Kind: ErrIO, Cause: readError}
	}

	fileEntries := make([]FileEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		if strings.HasPrefix(entryName, hiddenEntryPrefixConstant) {
			continue
		}

		entryPath := filepath.Join(directoryPath, entryName)
		isDirectory, classifyError := lister.isDirectory(directoryEntry, entryPath)
		if classifyError != nil {
			return nil, OperationError{Operation: operation, Path: entryPath, Kind: ErrIO, Cause: classifyError}
		}

		lister.logger.Debug(entryProcessedMessageConstant, zap.String(logFieldPathConstant, entryPath), zap.Bool(logFieldIsDirectoryConstant, isDirectory))
		fileEntries = append(fileEntries, FileEntry{
			Name:        entryName,
			Path:        entryPath,
			IsDirectory: isDirectory,
		})
	}

	SortEntries(fileEntries)
	return fileEntries, nil
}

// isDirectory follows symbolic links. A dangling link is a plain entry; any other stat failure
// is returned.
func (lister *Lister) isDirectory(directoryEntry fs.DirEntry, entryPath string) (bool, error) {
	entryInfo, statError := lister.fileSystem.Stat(entryPath)
	if statError == nil {
		return entryInfo.IsDir(), nil
	}
	if errors.Is(statError, fs.ErrNotExist) && directoryEntry.Type()&fs.ModeSymlink != 0 {
		return false, nil
	}
	return false, statError
}

// SortEntries orders entries directories first, then by case-insensitive name. Names that fold
// to the same value are ordered by their raw bytes so the order is total.
func SortEntries(entries []FileEntry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(left FileEntry, right FileEntry) int {
	if left.IsDirectory != right.IsDirectory {
		if left.IsDirectory {
			return -1
		}
		return 1
	}
	if foldedComparison := cmp.Compare(strings.ToLower(left.Name), strings.ToLower(right.Name)); foldedComparison != 0 {
		return foldedComparison
	}
	return cmp.Compare(left.Name, right.Name)
}

func classifyFailure(operation string, targetPath string, failure error) OperationError {
	if errors.Is(failure, fs.ErrNotExist) {
		return OperationError{Operation: operation, Path: targetPath, Kind: ErrPathNotFound, Cause: failure}
	}
	return OperationError{Operation: operation, Path: targetPath, Kind: ErrIO, Cause: failure}
}
