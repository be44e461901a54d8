package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/report"
	"github.com/chazu/kerf/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report FILE",
		Short: "Classify every cut of every part and list the redundant ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			m, err := report.Build(s)
			if err != nil {
				return err
			}
			r, err := report.Run(a.querier(), m)
			if err != nil {
				return err
			}
			return r.Encode(cmd.OutOrStdout(), a.cfg.Format)
		},
	}
}

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON-serializable mesh format read by viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// toMeshData converts kernel meshes to the viewer format, assigning palette
// colours in part order.
func toMeshData(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}

func newMeshCmd(a *app) *cobra.Command {
	var cells int
	cmd := &cobra.Command{
		Use:   "mesh FILE",
		Short: "Tessellate every part and print the meshes as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			if err := report.Check(s); err != nil {
				return err
			}

			meshes, err := tessellate.Tessellate(s, sdfx.New(sdfx.WithCells(cells)))
			if err != nil {
				return err
			}
			for _, m := range meshes {
				a.logger.Debug("part tessellated",
					zap.String("part", m.PartName),
					zap.Int("triangles", m.TriangleCount()))
			}
			out := struct {
				Meshes []MeshData `json:"meshes"`
			}{Meshes: toMeshData(meshes)}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}
	cmd.Flags().IntVar(&cells, "cells", 200, "marching cubes resolution along the longest axis")
	return cmd
}

// Inside is the answer of the inside command.
type Inside struct {
	Part    string        `json:"part" yaml:"part"`
	Variant string        `json:"variant" yaml:"variant"`
	Point   [3]float64    `json:"point" yaml:"point,flow"`
	Inside  bool          `json:"inside" yaml:"inside"`
	Bounds  [2][3]float64 `json:"bounds" yaml:"bounds,flow"`
}

var variants = map[string]kernel.SolidVariant{
	kernel.Default.String():      kernel.Default,
	kernel.Raw.String():          kernel.Raw,
	kernel.PlaneCutOnly.String(): kernel.PlaneCutOnly,
}

func newInsideCmd(a *app) *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "inside FILE PART X Y Z",
		Short: "Report whether a point lies inside a part",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := variants[variant]
			if !ok {
				return fmt.Errorf("unknown variant %q", variant)
			}
			var pt [3]float64
			for i, arg := range args[2:] {
				f, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("coordinate %q: %w", arg, err)
				}
				pt[i] = f
			}

			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			m, err := report.Build(s)
			if err != nil {
				return err
			}
			p := m.Part(args[1])
			if p == nil {
				return fmt.Errorf("no part named %q in %s", args[1], args[0])
			}

			q := a.querier()
			solid, err := q.Kernel().Solid(p, v)
			if err != nil {
				return err
			}
			bb := solid.BoundingBox()
			res := Inside{
				Part:    p.Name(),
				Variant: v.String(),
				Point:   pt,
				Inside:  q.IsInside(v3.Vec{X: pt[0], Y: pt[1], Z: pt[2]}, solid),
				Bounds: [2][3]float64{
					{bb.Min.X, bb.Min.Y, bb.Min.Z},
					{bb.Max.X, bb.Max.Y, bb.Max.Z},
				},
			}
			return report.Encode(cmd.OutOrStdout(), a.cfg.Format, res)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", kernel.Default.String(), "solid to test: default, raw or plane-cut-only")
	return cmd
}
