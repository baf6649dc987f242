package gen

import (
	"bytes"
	_ "embed"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/BIwashi/sigcodec/pkg/dbc"
)

//go:embed template/network.proto.tmpl
var protoTemplate string

var funcMap = template.FuncMap{
	"ToProtoMessageName": dbc.ToProtoMessageName,
	"ToProtoFieldName":   dbc.ToProtoFieldName,
	"signals": func(m *dbc.Message) []*dbc.Signal {
		return slices.Collect(m.Signals())
	},
	"add": func(a, b int) int {
		return a + b
	},
}

// ProtoGenerator generates Proto files from network definitions
type ProtoGenerator struct {
	Network     *dbc.Network
	PackageName string
	logger      *slog.Logger
}

// NewProtoGenerator creates a new ProtoGenerator
func NewProtoGenerator(network *dbc.Network, packageName string, logger *slog.Logger) *ProtoGenerator {
	return &ProtoGenerator{
		Network:     network,
		PackageName: packageName,
		logger:      logger,
	}
}

// Generate renders the proto definition of every message to w.
func (g *ProtoGenerator) Generate(w io.Writer) error {
	tmpl, err := template.New("proto").Funcs(funcMap).Parse(protoTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	data := struct {
		PackageName string
		Messages    []*dbc.Message
	}{
		PackageName: g.PackageName,
		Messages:    slices.Collect(g.Network.Messages()),
	}

	if err := tmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, "failed to execute template")
	}
	return nil
}

// GenerateFile renders the proto definition into outputPath.
func (g *ProtoGenerator) GenerateFile(outputPath string) error {
	g.logger.Info("Generating proto file", "output_path", outputPath)

	var buf bytes.Buffer
	if err := g.Generate(&buf); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write proto file")
	}
	return nil
}

// GeneratePackageName generates a package name from the network filename
func GeneratePackageName(filename string) string {
	baseName := filepath.Base(filename)
	baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))

	packageName := strings.ToLower(baseName)
	packageName = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(packageName)
	if packageName != "" && packageName[0] >= '0' && packageName[0] <= '9' {
		packageName = "n" + packageName
	}
	return packageName
}

// GenerateProtoFilename generates the output proto filename from the network filename
func GenerateProtoFilename(filename string) string {
	baseName := filepath.Base(filename)
	baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
	return baseName + ".proto"
}

// GenerateFromFile loads a network definition and writes its proto file into
// outputDir, returning the written path.
func GenerateFromFile(networkPath, outputDir string, logger *slog.Logger) (string, error) {
	network, err := dbc.LoadFile(networkPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to load network definition")
	}

	outputPath := filepath.Join(outputDir, GenerateProtoFilename(networkPath))
	generator := NewProtoGenerator(network, GeneratePackageName(networkPath), logger)
	if err := generator.GenerateFile(outputPath); err != nil {
		return "", errors.Wrap(err, "failed to generate proto file")
	}

	logger.Info("Successfully generated proto file", "output_path", outputPath, "messages", network.MessageCount())
	return outputPath, nil
}
