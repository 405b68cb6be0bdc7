// Package fixture provides a small, fully consistent experiment set: three
// simulated experiments plus one design row that never ran. Tests and the
// sample generator share it.
package fixture

import (
	"github.com/MikeSquared-Agency/Assay/internal/attributes"
	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

const (
	TableProcess  = "df_process"
	TableProduct  = "df_product"
	TableResource = "df_resource"
	TableSystem   = "df_system"
)

// Expected aggregated indicator values per experiment (exp001..exp003).
var (
	IND01 = []float64{125, 150, 110}
	IND02 = []float64{100, 120, 86}
	IND03 = []float64{1.5, 1.25, 1.75}
)

const IndicatorsJSON = `{
  "indicators": [
    {
      "indicator_id": "IND01",
      "indicator_name": "Processing cost",
      "target_dataframe": "df_process",
      "aggregation": "sum",
      "direction": "minimize",
      "threshold": 1000,
      "weight": 0.3,
      "category": "economic",
      "formula": "time * cost_rate",
      "indicator_variables": {
        "time": {"source": "dataframe", "column": "processing_time"},
        "cost_rate": {"source": "dataframe", "column": "station_cost"}
      }
    },
    {
      "indicator_id": "IND02",
      "indicator_name": "Process emissions",
      "target_dataframe": "df_process",
      "aggregation": "sum",
      "direction": "minimize",
      "threshold": 500,
      "weight": 0.2,
      "category": "environmental",
      "formula": "energy * factor",
      "indicator_variables": {
        "energy": {"source": "dataframe", "column": "energy_used"},
        "factor": {"source": "dataframe", "column": "emission_factor"}
      }
    },
    {
      "indicator_id": "IND03",
      "indicator_name": "Recovered mass",
      "target_dataframe": "df_product",
      "aggregation": "average",
      "direction": "maximize",
      "threshold": 0.7,
      "weight": 0.5,
      "category": "environmental",
      "formula": "quality * weight",
      "indicator_variables": {
        "quality": {"source": "dataframe", "column": "component_quality"},
        "weight": {"source": "dataframe", "column": "component_weight"}
      }
    }
  ]
}
`

const ValuesJSON = `{
  "values": [
    {
      "value_id": "VAL01",
      "target_dataframe": "df_process",
      "category": "cost_factor",
      "formula": "time * power",
      "value_variables": {
        "time": {"source": "dataframe", "column": "processing_time"},
        "power": {
          "source": "attribute_file",
          "file": "attributes_process.json",
          "lookup_columns": ["step_name"],
          "value_path": "cost_rates.running.power_rating"
        }
      }
    },
    {
      "value_id": "VAL02",
      "target_dataframe": "df_process",
      "category": "cost_factor",
      "formula": "circularity",
      "value_variables": {
        "circularity": {
          "source": "quality_threshold",
          "file": "attributes_product.json",
          "lookup_column": "step_name",
          "quality_column": "quality",
          "value_path": "end_of_life_options",
          "value_key": "circularity_rating"
        }
      }
    }
  ],
  "special_values": [
    {
      "value_name": "REVENUE",
      "target_dataframe": "df_process",
      "category": "aggregate",
      "formula": "value * quantity",
      "value_variables": {
        "value": {
          "source": "quality_range",
          "file": "attributes_product.json",
          "lookup_column": "step_name",
          "quality_column": "quality",
          "value_path": "quality_dependent_attributes.component_value",
          "value_key": "value"
        },
        "quantity": {"source": "dataframe", "column": "quantity"}
      }
    },
    {
      "value_name": "COSTS_VAR",
      "target_dataframe": "df_process",
      "category": "aggregate",
      "formula": "energy_cost * 0.5",
      "value_variables": {
        "energy_cost": {"source": "dataframe", "column": "VAL01"}
      }
    },
    {
      "value_name": "PROFIT",
      "target_dataframe": "df_process",
      "category": "aggregate",
      "formula": "revenue - costs",
      "value_variables": {
        "revenue": {"source": "dataframe", "column": "REVENUE"},
        "costs": {"source": "dataframe", "column": "COSTS_VAR"}
      }
    },
    {
      "value_name": "COSTS_FIX",
      "target_dataframe": "df_system",
      "category": "cost_factor",
      "formula": "fixed + maintenance",
      "value_variables": {
        "fixed": {
          "source": "attribute_file",
          "file": "attributes_systems.json",
          "lookup_columns": ["system_config"],
          "value_path": "fixed_cost"
        },
        "maintenance": {
          "source": "attribute_file",
          "file": "attributes_systems.json",
          "lookup_columns": ["system_config"],
          "value_path": "maintenance_cost"
        }
      }
    }
  ]
}
`

// AttributeDocs are the attribute documents keyed by table name, with the
// key under which each stores its records and, for component tables, the
// component key.
var AttributeDocs = map[string]struct {
	Doc          string
	RecordsKey   string
	ComponentKey string
}{
	"process": {processAttributes, "process_attributes", ""},
	"systems": {systemAttributes, "system_configurations", ""},
	"product": {productAttributes, "components", "component_name"},
}

// AttributeOrder is the order tables are added to the bundle.
var AttributeOrder = []string{"process", "systems", "product"}

const processAttributes = `{
  "process_attributes": [
    {"step_name": "comp_A", "disassembly_time": 10.0, "cost_rates": {"running": {"power_rating": 2.0}}},
    {"step_name": "comp_B", "disassembly_time": 15.0, "cost_rates": {"running": {"power_rating": 3.0}}}
  ]
}
`

const systemAttributes = `{
  "system_configurations": [
    {"system_config": "config_A", "fixed_cost": 1000.0, "maintenance_cost": 100.0},
    {"system_config": "config_B", "fixed_cost": 1500.0, "maintenance_cost": 150.0}
  ]
}
`

const productAttributes = `{
  "components": [
    {
      "component_name": "comp_A",
      "fixed_attributes": {"weight": {"value": 2.0}},
      "quality_dependent_attributes": {
        "component_value": [
          {"quality_min": 0.0, "quality_max": 0.5, "value": 50.0},
          {"quality_min": 0.5, "quality_max": 1.0, "value": 100.0}
        ]
      },
      "end_of_life_options": {
        "recycle": {"quality_min": 0.0, "quality_max": 0.6, "circularity_rating": 0.5},
        "remanufacture": {"quality_min": 0.6, "quality_max": 1.0, "circularity_rating": 0.9}
      }
    },
    {
      "component_name": "comp_B",
      "fixed_attributes": {"weight": {"value": 3.0}},
      "quality_dependent_attributes": {
        "component_value": [
          {"quality_min": 0.0, "quality_max": 0.5, "value": 75.0},
          {"quality_min": 0.5, "quality_max": 1.0, "value": 150.0}
        ]
      },
      "end_of_life_options": {
        "recycle": {"quality_min": 0.0, "quality_max": 0.7, "circularity_rating": 0.6},
        "remanufacture": {"quality_min": 0.7, "quality_max": 1.0, "circularity_rating": 0.95}
      }
    }
  ]
}
`

// Catalog parses the fixture definitions.
func Catalog() *catalog.Catalog {
	c, err := catalog.Parse([]byte(IndicatorsJSON), []byte(ValuesJSON))
	if err != nil {
		panic(err)
	}
	return c
}

// Attributes decodes the fixture attribute documents.
func Attributes() *attributes.Bundle {
	tables := make([]*attributes.Table, 0, len(AttributeOrder))
	for _, name := range AttributeOrder {
		doc := AttributeDocs[name]
		t, err := attributes.Decode(name, []byte(doc.Doc), doc.RecordsKey, doc.ComponentKey)
		if err != nil {
			panic(err)
		}
		tables = append(tables, t)
	}
	return attributes.NewBundle(tables...)
}

// DesignColumns is the column order of the design table.
var DesignColumns = []string{frame.ExperimentID, "system_scenario", "system_config", "product_scenario", "automation_level", "description"}

// Design has exp004, which has no simulation output.
func Design() *frame.Table {
	return frame.NewTable("doe", DesignColumns, []frame.Row{
		{"exp_id": "exp001", "system_scenario": 1.0, "system_config": "config_A", "product_scenario": 1.0, "automation_level": 0.0, "description": "Manual system"},
		{"exp_id": "exp002", "system_scenario": 2.0, "system_config": "config_B", "product_scenario": 1.0, "automation_level": 3.0, "description": "Semi-auto system"},
		{"exp_id": "exp003", "system_scenario": 1.0, "system_config": "config_A", "product_scenario": 2.0, "automation_level": 6.0, "description": "Full-auto system"},
		{"exp_id": "exp004", "system_scenario": 2.0, "system_config": "config_B", "product_scenario": 2.0, "automation_level": 6.0, "description": "Not simulated"},
	})
}

var ProcessColumns = []string{frame.ExperimentID, "step_name", "processing_time", "station_cost", "energy_used", "emission_factor", "quality", "quantity"}

func Process() *frame.Table {
	row := func(exp, step string, time, energy, quality float64) frame.Row {
		return frame.Row{"exp_id": exp, "step_name": step, "processing_time": time, "station_cost": 5.0,
			"energy_used": energy, "emission_factor": 2.0, "quality": quality, "quantity": 1.0}
	}
	return frame.NewTable(TableProcess, ProcessColumns, []frame.Row{
		row("exp001", "comp_A", 10, 20, 0.9),
		row("exp001", "comp_B", 15, 30, 0.4),
		row("exp002", "comp_A", 12, 25, 0.3),
		row("exp002", "comp_B", 18, 35, 0.8),
		row("exp003", "comp_A", 8, 15, 0.7),
		row("exp003", "comp_B", 14, 28, 0.65),
	})
}

var ProductColumns = []string{frame.ExperimentID, "product_id", "component_quality", "component_weight"}

func Product() *frame.Table {
	row := func(exp, id string, q, w float64) frame.Row {
		return frame.Row{"exp_id": exp, "product_id": id, "component_quality": q, "component_weight": w}
	}
	return frame.NewTable(TableProduct, ProductColumns, []frame.Row{
		row("exp001", "prod_1", 0.75, 2), row("exp001", "prod_2", 0.5, 3),
		row("exp002", "prod_1", 0.5, 2), row("exp002", "prod_2", 0.5, 3),
		row("exp003", "prod_1", 1.0, 2), row("exp003", "prod_2", 0.5, 3),
	})
}

var ResourceColumns = []string{frame.ExperimentID, "station_count", "utilization"}

func Resource() *frame.Table {
	return frame.NewTable(TableResource, ResourceColumns, []frame.Row{
		{"exp_id": "exp001", "station_count": 2.0, "utilization": 0.8},
		{"exp_id": "exp002", "station_count": 3.0, "utilization": 0.75},
		{"exp_id": "exp003", "station_count": 2.0, "utilization": 0.85},
	})
}

// System is the design restricted to the simulated experiments.
func System() *frame.Table {
	d := Design()
	rows := make([]frame.Row, 0, 3)
	for i := 0; i < d.Len(); i++ {
		r := d.Row(i)
		if r.String(frame.ExperimentID) == "exp004" {
			continue
		}
		rows = append(rows, r)
	}
	return frame.NewTable(TableSystem, DesignColumns, rows)
}

// Entities returns the four entity tables.
func Entities() *frame.Set {
	return frame.NewSet(Process(), Product(), Resource(), System())
}
