package biome

import "fmt"

func material(name string) *Material {
	return &Material{
		Name:     name,
		Diffuse:  "textures/terrain/" + name + "_diffuse.png",
		Normal:   "textures/terrain/" + name + "_normal.png",
		Specular: "textures/terrain/" + name + "_specular.png",
	}
}

func tree(name string, scale, chance float32) FoliageModel {
	return FoliageModel{
		Chance: chance,
		LODs: []FoliageLOD{
			{Mesh: "models/" + name + "_lod0.obj", Material: name, Scale: scale, MaxDistance: 600},
			{Mesh: "models/" + name + "_lod1.obj", Material: name, Scale: scale, MaxDistance: 2500},
			{Mesh: "models/billboard.obj", Material: name + "_billboard", Scale: scale, MaxDistance: 6000},
		},
	}
}

func shrub(name string, scale, chance float32) FoliageModel {
	return FoliageModel{
		Chance: chance,
		LODs: []FoliageLOD{
			{Mesh: "models/" + name + ".obj", Material: name, Scale: scale, MaxDistance: 800},
		},
	}
}

// RegisterDefaults adds the stock flight-terrain biomes: temperate forest,
// desert and alpine. Rock and snow are shared between biomes and receive a
// single material ID.
func RegisterDefaults(r *Registry) error {
	var (
		sand  = material("sand")
		grass = material("grass")
		dirt  = material("dirt")
		rock  = material("rock")
		snow  = material("snow")
		dune  = material("dune")
	)
	var (
		pine  = tree("pine", 1, 3)
		oak   = tree("oak", 1.2, 2)
		birch = tree("birch", 0.9, 1)
		bush  = shrub("bush", 1, 4)
		cacti = shrub("cactus", 1, 1)
		reeds = shrub("reeds", 0.6, 1)
		kelp  = shrub("kelp", 0.8, 1)
	)

	biomes := []Biome{
		{
			Name: "temperate",
			Levels: []TerrainLevel{
				{Material: sand, Foliage: []FoliageModel{reeds}, UnderwaterFoliage: []FoliageModel{kelp}},
				{Material: grass, Foliage: []FoliageModel{oak, birch, bush}},
				{Material: dirt, Foliage: []FoliageModel{pine, oak}},
				{Material: rock, Foliage: []FoliageModel{pine}},
				{Material: snow},
			},
		},
		{
			Name: "desert",
			Levels: []TerrainLevel{
				{Material: dune, Foliage: []FoliageModel{cacti}},
				{Material: sand, Foliage: []FoliageModel{bush, cacti}},
			},
		},
		{
			Name: "alpine",
			Levels: []TerrainLevel{
				{Material: grass, Foliage: []FoliageModel{pine, bush}, UnderwaterFoliage: []FoliageModel{kelp}},
				{Material: rock, Foliage: []FoliageModel{pine}},
				{Material: snow},
			},
		},
	}
	for _, b := range biomes {
		if _, err := r.Add(b); err != nil {
			return fmt.Errorf("register %s: %w", b.Name, err)
		}
	}
	return r.Finalize()
}
