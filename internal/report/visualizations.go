package report

import "github.com/banshee-data/trajectory.report/internal/charts"

// Images produced outside this tool that the report shows when present in
// the visualisation directory.
const (
	Trajectories3DFile = "trajectories_3d.png"
	DensityOverlayFile = "density_trajectories.png"
)

// Section is the report section a visualisation is shown in.
type Section int

const (
	SectionTrajectories2D Section = iota
	SectionTrajectories3D
	SectionDensity
	SectionStatistics
)

// Visualization describes one image the report can show.
type Visualization struct {
	File        string
	Caption     string
	Description string
	Section     Section
}

// Catalogue lists every known visualisation in display order.
var Catalogue = []Visualization{
	{
		File:        Trajectories3DFile,
		Caption:     "3D Trajectories in Space-Time",
		Description: "Three dimensional view of every trajectory over time, showing how each individual moves through the scene as the video progresses.",
		Section:     SectionTrajectories3D,
	},
	{
		File:        charts.TrajectoriesFile,
		Caption:     "2D Trajectories on the Image Plane",
		Description: "Projection of the complete trajectories onto the image plane, for reading movement patterns and the most travelled areas of the scene.",
		Section:     SectionTrajectories2D,
	},
	{
		File:        DensityOverlayFile,
		Caption:     "Density Map with Trajectories",
		Description: "Heat map of position density with individual trajectories drawn on top, showing individual and collective behaviour together.",
		Section:     SectionDensity,
	},
	{
		File:        charts.TotalDistanceFile,
		Caption:     "Total Distance per Entity",
		Description: "Total distance covered by each tracked entity over the whole recording, separating the most active individuals from the most sedentary.",
		Section:     SectionStatistics,
	},
	{
		File:        charts.AverageSpeedFile,
		Caption:     "Average Speed per Entity",
		Description: "Average displacement speed of each entity, highlighting differences in individual mobility.",
		Section:     SectionStatistics,
	},
	{
		File:        charts.SpeedVsDistanceFile,
		Caption:     "Speed versus Distance",
		Description: "Scatter of average speed against total distance for each entity. Marker size follows the number of frames observed.",
		Section:     SectionStatistics,
	},
	{
		File:        charts.DurationFile,
		Caption:     "Time in View",
		Description: "Span of frames during which each entity was present in the recording.",
		Section:     SectionStatistics,
	},
	{
		File:        charts.SpeedEvolutionFile,
		Caption:     "Speed over Time",
		Description: "Per-segment speed of the most active entities against frame number, revealing acceleration, deceleration and events of interest.",
		Section:     SectionStatistics,
	},
	{
		File:        charts.DensityFile,
		Caption:     "Grid Heat Map",
		Description: "Count of observed positions in each cell of a grid laid over the scene, identifying areas of high concentration.",
		Section:     SectionDensity,
	},
	{
		File:        charts.DirectionsFile,
		Caption:     "Direction Distribution",
		Description: "Histogram of segment bearings, showing whether movement favours particular directions.",
		Section:     SectionStatistics,
	},
	{
		File:        charts.CorrelationFile,
		Caption:     "Correlation between Movement Metrics",
		Description: "Pearson correlation between distance, speed, frame count and duration across entities.",
		Section:     SectionStatistics,
	},
}

// Animation file names looked for in the visualisation directory when no
// animations are given explicitly.
var DefaultAnimations = []string{"trajectories_animation.mp4", "trajectories_animation.gif"}
