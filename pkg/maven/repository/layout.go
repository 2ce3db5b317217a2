package repository

import (
	"path"
	"strings"
)

// Filename returns the file name an artifact is stored under:
// <artifactId>-<version>[-<classifier>].<extension>. Some types imply a
// classifier and a jar extension.
func Filename(artifactID, version, classifier, typ string) string {
	ext := typ
	switch typ {
	case "", "bundle":
		ext = "jar"
	case "test-jar":
		ext, classifier = "jar", orDefault(classifier, "tests")
	case "maven-plugin", "ejb":
		ext = "jar"
	case "ejb-client":
		ext, classifier = "jar", orDefault(classifier, "client")
	case "java-source":
		ext, classifier = "jar", orDefault(classifier, "sources")
	case "javadoc":
		ext, classifier = "jar", orDefault(classifier, "javadoc")
	}

	name := artifactID + "-" + version
	if classifier != "" {
		name += "-" + classifier
	}
	return name + "." + ext
}

// PomFilename returns the name of a version's project document.
func PomFilename(artifactID, version string) string {
	return artifactID + "-" + version + ".pom"
}

// ArtifactDir is the slash-separated directory holding every version of an artifact.
func ArtifactDir(groupID, artifactID string) string {
	return path.Join(strings.ReplaceAll(groupID, ".", "/"), artifactID)
}

// VersionDir is the slash-separated directory holding one version.
func VersionDir(groupID, artifactID, version string) string {
	return path.Join(ArtifactDir(groupID, artifactID), version)
}

// MetadataPath is the slash-separated path of an artifact's version listing.
func MetadataPath(groupID, artifactID string) string {
	return path.Join(ArtifactDir(groupID, artifactID), "maven-metadata.xml")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
