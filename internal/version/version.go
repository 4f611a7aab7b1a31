package version

// Version is the current version of drizzle-project.
// Can be overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.4.0"

// Name is the application name.
const Name = "drizzle-project"

// Description is a short description of the application.
const Description = "Scaffold drizzle ORM config, schema, client and migration files into a project"
